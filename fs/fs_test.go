package appfs

import (
	"strings"
	"testing"
)

func TestFS_embedsExpectedAssets(t *testing.T) {
	for _, path := range []string{
		"migrations/00001_init.sql",
		"templates/email/_base.txt",
		"templates/email/_base.gohtml",
		"assets/common-passwords.txt.gz",
	} {
		if _, err := FS.ReadFile(path); err != nil {
			t.Errorf("FS.ReadFile(%q) failed: %v", path, err)
		}
	}
}

// A verified request owns its placement; removing the request must be blocked
// by the placement, never ripple through it into logs and evaluations.
func TestMigrations_requestDeletionIsRestricted(t *testing.T) {
	data, err := FS.ReadFile("migrations/00001_init.sql")
	if err != nil {
		t.Fatalf("FS.ReadFile() failed: %v", err)
	}

	var fk string
	for _, line := range strings.Split(string(data), "\n") {
		if strings.Contains(line, "REFERENCES internship_request") {
			fk = line
			break
		}
	}
	if fk == "" {
		t.Fatal("placement.request_id foreign key not found in schema")
	}
	if strings.Contains(fk, "CASCADE") {
		t.Errorf("placement.request_id cascades on delete: %s", strings.TrimSpace(fk))
	}
	if !strings.Contains(fk, "ON DELETE RESTRICT") {
		t.Errorf("placement.request_id is not delete-restricted: %s", strings.TrimSpace(fk))
	}
}
