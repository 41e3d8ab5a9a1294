package emailsvc

import (
	"fmt"
	"log"
	"mime/multipart"
	"net/mail"
	"net/textproto"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/ghabbala/VU-Interniship-System/core"
)

// SentMessages records every message delivered through the console service.
// Tests inspect it to assert on notification side effects.
var (
	SentMessages = make([]core.EmailMessage, 0)
	mu           sync.Mutex
)

// consoleService renders messages and dumps them on stdout. Used in DEV so
// workflow notifications (reminders, password resets) can be eyeballed
// without a sendgrid account.
type consoleService struct {
	from       mail.Address
	subjPrefix string
	quiet      bool
}

var _ core.EmailService = (*consoleService)(nil)

func NewConsoleService() core.EmailService {
	return &consoleService{
		from:       core.Conf.DefaultFromEmail,
		subjPrefix: "[" + core.Conf.AppName + "] ",
	}
}

func (svc consoleService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		go svc.deliver(msg)
	}
}

func (svc consoleService) deliver(msg *core.EmailMessage) {
	if err := msg.Render(); err != nil {
		log.Fatalf("%+v", errors.Wrap(err, "rendering email"))
	}
	if !msg.HasRecipients() || !(msg.HasContent() || msg.HasAttachments()) {
		return
	}
	svc.print(*msg)
	mu.Lock()
	SentMessages = append(SentMessages, *msg)
	mu.Unlock()
}

func (svc consoleService) print(msg core.EmailMessage) {
	var body strings.Builder

	writeHeader := func(key, value string) {
		_, _ = fmt.Fprintf(&body, "%s: %s\r\n", key, value)
	}
	writeHeader("From", svc.from.String())
	writeHeader("MIME-Version", "1.0")
	writeHeader("Date", time.Now().Format(time.RFC1123Z))
	writeHeader("Subject", svc.subjPrefix+msg.Subject)
	writeHeader("To", joinAddresses(msg.To))
	writeHeader("CC", joinAddresses(msg.Cc))
	writeHeader("BCC", joinAddresses(msg.Bcc))

	altW := multipart.NewWriter(&body)
	defer altW.Close()

	var mixedW *multipart.Writer
	if msg.HasAttachments() {
		mixedW = multipart.NewWriter(&body)
		defer mixedW.Close()
		writeHeader("Content-Type", "multipart/mixed")
		writeHeader("Content-Type", "boundary="+mixedW.Boundary())
	} else {
		writeHeader("Content-Type", "multipart/alternative")
		writeHeader("Content-Type", "boundary="+altW.Boundary())
	}
	_, _ = fmt.Fprint(&body, "\r\n")

	if mixedW != nil {
		_, err := mixedW.CreatePart(textproto.MIMEHeader{
			"Content-Type": {"multipart/alternative", "boundary=" + altW.Boundary()},
		})
		if err != nil {
			log.Fatalf("%+v", errors.Wrap(err, "creating multipart/alternative part"))
		}
	}

	writePart := func(w *multipart.Writer, hdr textproto.MIMEHeader, content string) {
		part, err := w.CreatePart(hdr)
		if err != nil {
			log.Fatalf("%+v", errors.Wrap(err, "creating email part"))
		}
		_, _ = fmt.Fprintf(part, "%s\r\n", content)
	}

	writePart(altW, textproto.MIMEHeader{"Content-Type": {"text/plain"}}, msg.TextContent)
	if msg.TemplateName != "" {
		writePart(altW, textproto.MIMEHeader{"Content-Type": {"text/html"}}, msg.HTMLContent)
	}
	if mixedW != nil {
		for _, at := range msg.Attachments {
			writePart(mixedW, textproto.MIMEHeader{
				"Content-Type":              {at.ContentType},
				"Content-Transfer-Encoding": {"base64"},
				"Content-Disposition":       {"attachment; filename=" + at.Filename},
			}, at.Content.String())
		}
	}

	if !svc.quiet {
		log.Println(body.String())
	}
}

func joinAddresses(addrs []mail.Address) string {
	joined := make([]string, 0, len(addrs))
	for _, a := range addrs {
		joined = append(joined, a.String())
	}
	return strings.Join(joined, ", ")
}

// consoleServiceMock delivers synchronously and silently so tests can assert
// on SentMessages right after the call that triggers a notification.
type consoleServiceMock struct {
	consoleService
}

func NewConsoleServiceMock() core.EmailService {
	return &consoleServiceMock{
		consoleService: consoleService{
			from:       core.Conf.DefaultFromEmail,
			subjPrefix: "[" + core.Conf.AppName + "] ",
			quiet:      true,
		},
	}
}

func (svc *consoleServiceMock) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		svc.deliver(msg)
	}
}
