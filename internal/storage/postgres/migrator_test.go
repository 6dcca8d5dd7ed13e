package postgres

import (
	"strings"
	"testing"
	"testing/fstest"
)

func TestLoadMigrations_Embedded(t *testing.T) {
	migrations, err := loadMigrations(migrationsFS)
	if err != nil {
		t.Fatalf("load embedded migrations: %v", err)
	}
	if len(migrations) == 0 {
		t.Fatal("embedded migrations must not be empty")
	}
	for _, m := range migrations {
		if m.UpSQL == "" || m.DownSQL == "" {
			t.Fatalf("migration %d_%s is missing a direction", m.Version, m.Name)
		}
	}
}

func TestLoadMigrations_SortsByVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"sql/migrations/0002_add_index.up.sql":     {Data: []byte("CREATE INDEX x ON t (a);")},
		"sql/migrations/0002_add_index.down.sql":   {Data: []byte("DROP INDEX x;")},
		"sql/migrations/0001_create_table.up.sql":  {Data: []byte("CREATE TABLE t (a INT);")},
		"sql/migrations/0001_create_table.down.sql": {Data: []byte("DROP TABLE t;")},
	}

	migrations, err := loadMigrations(fsys)
	if err != nil {
		t.Fatalf("load migrations: %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("ожидалось 2 миграции, получено %d", len(migrations))
	}
	if migrations[0].Version != 1 || migrations[1].Version != 2 {
		t.Fatalf("неверный порядок версий: %d, %d", migrations[0].Version, migrations[1].Version)
	}
	if !strings.Contains(migrations[0].UpSQL, "CREATE TABLE") {
		t.Fatalf("неверное тело up-миграции: %q", migrations[0].UpSQL)
	}
}

func TestLoadMigrations_RejectsBadName(t *testing.T) {
	fsys := fstest.MapFS{
		"sql/migrations/create_table.up.sql": {Data: []byte("CREATE TABLE t (a INT);")},
	}

	if _, err := loadMigrations(fsys); err == nil {
		t.Fatal("имя миграции без версии должно отклоняться")
	}
}

func TestLoadMigrations_RequiresBothDirections(t *testing.T) {
	fsys := fstest.MapFS{
		"sql/migrations/0001_create_table.up.sql": {Data: []byte("CREATE TABLE t (a INT);")},
	}

	if _, err := loadMigrations(fsys); err == nil {
		t.Fatal("миграция без down-файла должна отклоняться")
	}
}
