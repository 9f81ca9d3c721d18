package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDispatchMigrationsContainSchemas(t *testing.T) {
	cases := []struct {
		glob   string
		checks []string
	}{
		{
			glob: "*_create_service_requests.sql",
			checks: []string{
				"CREATE TABLE IF NOT EXISTS service_requests",
				"CREATE TABLE IF NOT EXISTS candidate_offers",
				"CREATE TABLE IF NOT EXISTS change_requests",
				"CREATE UNIQUE INDEX IF NOT EXISTS ux_candidate_offers_request_candidate",
				"CREATE UNIQUE INDEX IF NOT EXISTS ux_change_requests_one_pending",
				"WHERE status = 'PENDING'",
			},
		},
		{
			glob: "*_create_settlement_tables.sql",
			checks: []string{
				"CREATE TABLE IF NOT EXISTS transactions",
				"CREATE TABLE IF NOT EXISTS wallet_entries",
				"CREATE INDEX IF NOT EXISTS idx_wallet_entries_user",
			},
		},
		{
			glob: "*_create_users_addresses.sql",
			checks: []string{
				"CREATE TABLE IF NOT EXISTS users",
				"CREATE TABLE IF NOT EXISTS addresses",
				"wallet_amount_cents bigint NOT NULL DEFAULT 0",
			},
		},
	}

	for _, tc := range cases {
		matches, err := filepath.Glob(filepath.Join("migrations", tc.glob))
		if err != nil {
			t.Fatalf("glob migrations: %v", err)
		}
		if len(matches) == 0 {
			t.Fatalf("no migration file matching %s", tc.glob)
		}

		data, err := os.ReadFile(matches[0])
		if err != nil {
			t.Fatalf("read migration file: %v", err)
		}
		content := string(data)

		for _, sub := range tc.checks {
			if !strings.Contains(content, sub) {
				t.Errorf("%s missing expected statement %q", matches[0], sub)
			}
		}
	}
}
