package dummydb

import (
	"sort"
	"time"

	"github.com/ghabbala/VU-Interniship-System/core/tracking"
)

type trackingRepository struct {
	db *trackingTable
}

var _ tracking.Repository = (*trackingRepository)(nil) // interface compliance check

func NewTrackingRepository(db *DB) tracking.Repository {
	return &trackingRepository{db: db.tracking}
}

func (repo *trackingRepository) CreateLog(log tracking.WeeklyLog, entries []tracking.WeeklyLogEntry) (tracking.WeeklyLog, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.pk++
	log.ID = repo.db.pk
	repo.db.logs[log.ID] = &log

	for _, e := range entries {
		e := e
		repo.db.pk++
		e.ID = repo.db.pk
		e.WeeklyLogID = log.ID
		repo.db.entries[e.ID] = &e
	}
	return log, nil
}

func (repo *trackingRepository) GetLogByID(id int) (tracking.WeeklyLog, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if log, ok := repo.db.logs[id]; ok {
		return *log, nil
	}
	return tracking.WeeklyLog{}, tracking.ErrNotFound
}

func (repo *trackingRepository) MaxWeekNo(placementID int) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	max := 0
	for _, log := range repo.db.logs {
		if log.PlacementID == placementID && log.WeekNo > max {
			max = log.WeekNo
		}
	}
	return max, nil
}

func (repo *trackingRepository) QueryLogsByPlacement(placementID int) ([]tracking.WeeklyLog, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var logs []tracking.WeeklyLog
	for _, log := range repo.db.logs {
		if log.PlacementID == placementID {
			logs = append(logs, *log)
		}
	}
	sort.Slice(logs, func(i, j int) bool { return logs[i].WeekNo > logs[j].WeekNo })
	return logs, nil
}

func (repo *trackingRepository) QueryLogsByPlacements(placementIDs []int, statuses ...string) ([]tracking.WeeklyLog, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	wanted := make(map[int]bool, len(placementIDs))
	for _, id := range placementIDs {
		wanted[id] = true
	}

	var logs []tracking.WeeklyLog
	for _, log := range repo.db.logs {
		if !wanted[log.PlacementID] {
			continue
		}
		if len(statuses) == 0 {
			logs = append(logs, *log)
			continue
		}
		for _, s := range statuses {
			if log.Status == s {
				logs = append(logs, *log)
				break
			}
		}
	}
	sort.Slice(logs, func(i, j int) bool {
		if logs[i].PlacementID != logs[j].PlacementID {
			return logs[i].PlacementID < logs[j].PlacementID
		}
		return logs[i].WeekNo > logs[j].WeekNo
	})
	return logs, nil
}

func (repo *trackingRepository) HasLogInRange(placementID int, start, end time.Time, statuses ...string) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, log := range repo.db.logs {
		if log.PlacementID != placementID {
			continue
		}
		matched := false
		for _, s := range statuses {
			if log.Status == s {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		// inclusive overlap: from_date <= end AND to_date >= start
		if !log.FromDate.After(end) && !log.ToDate.Before(start) {
			return true, nil
		}
	}
	return false, nil
}

func (repo *trackingRepository) UpdateLog(log tracking.WeeklyLog) (tracking.WeeklyLog, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.logs[log.ID]; !ok {
		return tracking.WeeklyLog{}, tracking.ErrNotFound
	}
	repo.db.logs[log.ID] = &log
	return log, nil
}

func (repo *trackingRepository) DeleteLog(id int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	delete(repo.db.logs, id)
	for eid, e := range repo.db.entries {
		if e.WeeklyLogID == id {
			delete(repo.db.entries, eid)
		}
	}
	return nil
}

func (repo *trackingRepository) GetLogEntries(logID int) ([]tracking.WeeklyLogEntry, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	dayOrder := make(map[string]int, len(tracking.Days))
	for i, d := range tracking.Days {
		dayOrder[d] = i
	}

	var entries []tracking.WeeklyLogEntry
	for _, e := range repo.db.entries {
		if e.WeeklyLogID == logID {
			entries = append(entries, *e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return dayOrder[entries[i].Day] < dayOrder[entries[j].Day] })
	return entries, nil
}

func (repo *trackingRepository) UpdateLogEntry(e tracking.WeeklyLogEntry) (tracking.WeeklyLogEntry, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.entries[e.ID]; !ok {
		return tracking.WeeklyLogEntry{}, tracking.ErrNotFound
	}
	repo.db.entries[e.ID] = &e
	return e, nil
}

func (repo *trackingRepository) CreateSiteVisit(v tracking.SiteVisit) (tracking.SiteVisit, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.pk++
	v.ID = repo.db.pk
	repo.db.visits[v.ID] = &v
	return v, nil
}

func (repo *trackingRepository) QuerySiteVisitsByPlacement(placementID int) ([]tracking.SiteVisit, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var visits []tracking.SiteVisit
	for _, v := range repo.db.visits {
		if v.PlacementID == placementID {
			visits = append(visits, *v)
		}
	}
	sort.Slice(visits, func(i, j int) bool { return visits[i].VisitDate.After(visits[j].VisitDate) })
	return visits, nil
}
