package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	echoapi "github.com/ghabbala/VU-Interniship-System/apps/api/echo"
	"github.com/ghabbala/VU-Interniship-System/core"
	"github.com/ghabbala/VU-Interniship-System/core/company"
	"github.com/ghabbala/VU-Interniship-System/core/evaluation"
	"github.com/ghabbala/VU-Interniship-System/core/internship"
	"github.com/ghabbala/VU-Interniship-System/core/tracking"
	"github.com/ghabbala/VU-Interniship-System/core/user"
	emailsvc "github.com/ghabbala/VU-Interniship-System/services/email"
	"github.com/ghabbala/VU-Interniship-System/services/filestore"
	logsvc "github.com/ghabbala/VU-Interniship-System/services/logger"
	"github.com/ghabbala/VU-Interniship-System/storage/database"
	sqlxrepos "github.com/ghabbala/VU-Interniship-System/storage/database/sqlx"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		core.Conf,
	)
	logger.Enable(!core.Conf.Debug)

	// set up DB
	sqlDB, err := database.Open(core.Conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	defer sqlDB.Close()
	db := sqlxrepos.NewDB(sqlDB)

	// set up services
	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}
	store, err := filestore.NewLocalStorage()
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up file storage: %v", err), err)
	}

	usrSvc := user.NewService(sqlxrepos.NewUserRepository(db), mailSvc)
	companySvc := company.NewService(sqlxrepos.NewCompanyRepository(db))
	internshipSvc := internship.NewService(sqlxrepos.NewInternshipRepository(db), companySvc, store)
	trackingSvc := tracking.NewService(
		sqlxrepos.NewTrackingRepository(db), internshipSvc, usrSvc, mailSvc, store, logger)
	evalSvc := evaluation.NewService(sqlxrepos.NewEvaluationRepository(db), internshipSvc, usrSvc, companySvc)

	logger.Info(fmt.Sprintf("Application initializing : version %q", core.Conf.Build))
	defer logger.Info("Application stopped")

	// start API server
	app := echoapi.NewServer(
		&echoapi.Options{
			Address:       core.Conf.Server.Address(),
			UserSvc:       usrSvc,
			CompanySvc:    companySvc,
			InternshipSvc: internshipSvc,
			TrackingSvc:   trackingSvc,
			EvaluationSvc: evalSvc,
			Logger:        logger,
		},
	)
	go app.Start()

	// block until an OS signal or an unrecoverable API error, then drain in-flight requests
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigs:
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))
	case <-app.ShutdownSignal():
		logger.Info("integrity issue: Start shutdown...")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.Stop(ctx); err != nil {
		logger.Error(fmt.Sprintf("graceful shutdown failed: %v", err), err)
	}
}
