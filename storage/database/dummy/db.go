package dummydb

import (
	"sync"

	"github.com/ghabbala/VU-Interniship-System/core/company"
	"github.com/ghabbala/VU-Interniship-System/core/evaluation"
	"github.com/ghabbala/VU-Interniship-System/core/internship"
	"github.com/ghabbala/VU-Interniship-System/core/tracking"
	"github.com/ghabbala/VU-Interniship-System/core/user"
)

type (
	DB struct {
		user       *userTable
		company    *companyTable
		internship *internshipTable
		tracking   *trackingTable
		evaluation *evaluationTable
	}

	userTable struct {
		sync.RWMutex
		pk              int
		users           map[int]*user.User
		studentProfiles map[int]*user.StudentProfile
		staffProfiles   map[int]*user.StaffProfile
		industryProfs   map[int]*user.IndustryProfile
	}

	companyTable struct {
		sync.RWMutex
		pk        int
		companies map[int]*company.Company
		contacts  map[int]*company.Contact
	}

	internshipTable struct {
		sync.RWMutex
		pk         int
		periods    map[int]*internship.Period
		requests   map[int]*internship.Request
		placements map[int]*internship.Placement
	}

	trackingTable struct {
		sync.RWMutex
		pk      int
		logs    map[int]*tracking.WeeklyLog
		entries map[int]*tracking.WeeklyLogEntry
		visits  map[int]*tracking.SiteVisit
	}

	evaluationTable struct {
		sync.RWMutex
		pk            int
		industryEvals map[int]*evaluation.IndustryEvaluation
		academicEvals map[int]*evaluation.AcademicEvaluation
		studentEvals  map[int]*evaluation.StudentEvaluation
		reports       map[int]*evaluation.ResultsReport
	}
)

func Open() (*DB, error) {
	db := &DB{
		user: &userTable{
			users:           make(map[int]*user.User),
			studentProfiles: make(map[int]*user.StudentProfile),
			staffProfiles:   make(map[int]*user.StaffProfile),
			industryProfs:   make(map[int]*user.IndustryProfile),
		},
		company: &companyTable{
			companies: make(map[int]*company.Company),
			contacts:  make(map[int]*company.Contact),
		},
		internship: &internshipTable{
			periods:    make(map[int]*internship.Period),
			requests:   make(map[int]*internship.Request),
			placements: make(map[int]*internship.Placement),
		},
		tracking: &trackingTable{
			logs:    make(map[int]*tracking.WeeklyLog),
			entries: make(map[int]*tracking.WeeklyLogEntry),
			visits:  make(map[int]*tracking.SiteVisit),
		},
		evaluation: &evaluationTable{
			industryEvals: make(map[int]*evaluation.IndustryEvaluation),
			academicEvals: make(map[int]*evaluation.AcademicEvaluation),
			studentEvals:  make(map[int]*evaluation.StudentEvaluation),
			reports:       make(map[int]*evaluation.ResultsReport),
		},
	}
	return db, nil
}
