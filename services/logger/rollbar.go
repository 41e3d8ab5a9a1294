package logsvc

import (
	"log"
	"strconv"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/ghabbala/VU-Interniship-System/core"
	"github.com/ghabbala/VU-Interniship-System/core/user"
)

// RollbarLogger mirrors everything to a standard logger and ships it to
// rollbar. A user.User passed among the args is attached as the rollbar
// person instead of being logged as a plain value.
type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{std: std}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

func (l RollbarLogger) report(send func(...interface{}), msg string, args []interface{}) {
	rollbarArgs := make([]interface{}, 0, len(args)+1)
	rollbarArgs = append(rollbarArgs, msg)

	var personSet bool
	for _, arg := range args {
		if usr, ok := arg.(user.User); ok {
			if !personSet {
				rollbar.SetPerson(strconv.Itoa(usr.ID), usr.Username, usr.Email)
				personSet = true
			}
			continue
		}
		rollbarArgs = append(rollbarArgs, arg)
	}
	if !personSet {
		rollbar.ClearPerson()
	}
	send(rollbarArgs...)

	l.std.Println(msg)
	for _, arg := range args {
		l.std.Printf("%+v\n", arg)
	}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	l.report(rollbar.Debug, msg, args)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	l.report(rollbar.Info, msg, args)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	l.report(rollbar.Warning, msg, args)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	l.report(rollbar.Error, msg, args)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.report(rollbar.Critical, msg, args)
	l.std.Fatal(msg)
}
