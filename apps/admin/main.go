package main

import (
	"log"
	"os"

	"github.com/ghabbala/VU-Interniship-System/core"
	"github.com/ghabbala/VU-Interniship-System/core/company"
	"github.com/ghabbala/VU-Interniship-System/core/internship"
	"github.com/ghabbala/VU-Interniship-System/core/tracking"
	"github.com/ghabbala/VU-Interniship-System/core/user"
	emailsvc "github.com/ghabbala/VU-Interniship-System/services/email"
	"github.com/ghabbala/VU-Interniship-System/services/filestore"
	logsvc "github.com/ghabbala/VU-Interniship-System/services/logger"
	"github.com/ghabbala/VU-Interniship-System/storage/database"
	sqlxrepos "github.com/ghabbala/VU-Interniship-System/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	// set up DB
	errAndDie(database.CreateIfNotExist(core.Conf))
	sqlDB, err := database.Open(core.Conf)
	errAndDie(err)
	defer sqlDB.Close()
	errAndDie(database.Ping(sqlDB))
	db := sqlxrepos.NewDB(sqlDB)

	// set up services
	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logsvc.NewNopLogger())
	}
	store, err := filestore.NewLocalStorage()
	errAndDie(err)

	usrRepo := sqlxrepos.NewUserRepository(db)
	usrSvc := user.NewService(usrRepo, mailSvc)
	companySvc := company.NewService(sqlxrepos.NewCompanyRepository(db))
	internshipSvc := internship.NewService(sqlxrepos.NewInternshipRepository(db), companySvc, store)
	trackingSvc := tracking.NewService(
		sqlxrepos.NewTrackingRepository(db), internshipSvc, usrSvc, mailSvc, store, logsvc.NewNopLogger())

	// start CLI
	cli := commandLine{
		db:          sqlDB,
		usrRepo:     usrRepo,
		trackingSvc: trackingSvc,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
