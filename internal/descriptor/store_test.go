package descriptor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/roach88/archq/internal/archetype"
)

func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(DriverSQLite, path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func practiceSchemas(t *testing.T) []archetype.TypeSchema {
	t.Helper()
	schemas, err := DecodeYAML([]byte(practiceYAML))
	if err != nil {
		t.Fatalf("DecodeYAML() failed: %v", err)
	}
	return schemas
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(DriverSQLite, path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(DriverSQLite, path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(DriverSQLite, path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	var name string
	err = s.DB().QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='archetypes'").Scan(&name)
	if err != nil {
		t.Errorf("archetypes table not found after idempotent opens: %v", err)
	}
}

func TestOpen_WALMode(t *testing.T) {
	s := createTestStore(t)

	var mode string
	if err := s.DB().QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open("oracle", "whatever")
	if err == nil {
		t.Fatal("expected error for unsupported driver")
	}
	if !strings.Contains(err.Error(), "unsupported driver") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	want := practiceSchemas(t)

	if err := s.Save(ctx, want...); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	// Load orders by identifier.
	byName := map[string]archetype.TypeSchema{}
	for _, schema := range want {
		byName[schema.Name.String()] = schema
	}
	wantOrder := []string{
		"openvpms-lookup.species.1.0",
		"openvpms-party.customerperson.1.0",
		"openvpms-party.patientpet.1.0",
	}
	if len(got) != len(wantOrder) {
		t.Fatalf("Load() returned %d schemas, want %d", len(got), len(wantOrder))
	}
	for i, name := range wantOrder {
		if diff := cmp.Diff(byName[name], got[i]); diff != "" {
			t.Errorf("schema %d (%s) mismatch (-want +got):\n%s", i, name, diff)
		}
	}
}

func TestStore_LoadEmpty(t *testing.T) {
	s := createTestStore(t)

	got, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if got == nil {
		t.Error("Load() returned nil, want empty slice")
	}
	if len(got) != 0 {
		t.Errorf("Load() returned %d schemas, want 0", len(got))
	}
}

func TestStore_SaveReplaces(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	species := archetype.TypeSchema{
		Name:    archetype.MustParseTypeName("lookup.species"),
		Source:  "Lookup",
		Primary: true,
	}
	if err := s.Save(ctx, species); err != nil {
		t.Fatalf("first Save() failed: %v", err)
	}

	species.Primary = false
	species.Properties = []archetype.Property{{Name: "code", Kind: archetype.KindString}}
	if err := s.Save(ctx, species); err != nil {
		t.Fatalf("second Save() failed: %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Load() returned %d schemas, want 1", len(got))
	}
	if diff := cmp.Diff(species, got[0]); diff != "" {
		t.Errorf("replaced schema mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_SaveRejectsInvalid(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	valid := archetype.TypeSchema{Name: archetype.MustParseTypeName("party.person"), Source: "Party"}
	invalid := archetype.TypeSchema{Name: archetype.MustParseTypeName("party.pet")}

	if err := s.Save(ctx, valid, invalid); err == nil {
		t.Fatal("expected error for schema without source")
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Save() wrote %d schemas despite failing", len(got))
	}
}

func TestStore_Delete(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, practiceSchemas(t)...); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	name := archetype.MustParseTypeName("openvpms-lookup.species.1.0")
	removed, err := s.Delete(ctx, name)
	if err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if !removed {
		t.Error("Delete() reported nothing removed")
	}

	removed, err = s.Delete(ctx, name)
	if err != nil {
		t.Fatalf("second Delete() failed: %v", err)
	}
	if removed {
		t.Error("second Delete() reported a removal")
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Load() returned %d schemas after delete, want 2", len(got))
	}
}

func TestStore_Registry(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, practiceSchemas(t)...); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	reg, err := s.Registry(ctx)
	if err != nil {
		t.Fatalf("Registry() failed: %v", err)
	}

	matches, err := reg.Resolve(archetype.MustParseTypeName("party.*"))
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if len(matches) != 2 {
		t.Errorf("Resolve(party.*) returned %d schemas, want 2", len(matches))
	}
}
