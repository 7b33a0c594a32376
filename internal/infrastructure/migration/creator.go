package migration

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"
)

const migrationTemplate = `-- {{.Direction}}: {{.Name}}
-- Created: {{.Timestamp}}
{{- if .Description}}
-- {{.Description}}
{{- end}}

`

var versionPattern = regexp.MustCompile(`^(\d+)_`)

// MigrationFile is a newly created up/down pair
type MigrationFile struct {
	Version  uint
	Name     string
	UpPath   string
	DownPath string
}

// CreateMigration writes an empty up/down pair numbered one past the highest
// existing version, e.g. 000004_add_branch_region.up.sql.
func CreateMigration(dir, name, description string) (*MigrationFile, error) {
	slug := sanitizeName(name)
	if slug == "" {
		return nil, fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}

	existing, err := ListMigrations(os.DirFS(dir))
	if err != nil {
		return nil, err
	}
	var version uint = 1
	if n := len(existing); n > 0 {
		version = existing[n-1].Version + 1
	}

	base := fmt.Sprintf("%06d_%s", version, slug)
	mf := &MigrationFile{
		Version:  version,
		Name:     base,
		UpPath:   filepath.Join(dir, base+".up.sql"),
		DownPath: filepath.Join(dir, base+".down.sql"),
	}

	tmpl := template.Must(template.New("migration").Parse(migrationTemplate))
	data := map[string]string{
		"Name":        name,
		"Description": description,
		"Timestamp":   time.Now().UTC().Format(time.RFC3339),
	}
	for _, f := range []struct{ path, direction string }{{mf.UpPath, "Up"}, {mf.DownPath, "Down"}} {
		data["Direction"] = f.direction
		if err := writeTemplate(f.path, tmpl, data); err != nil {
			_ = os.Remove(mf.UpPath)
			return nil, err
		}
	}
	return mf, nil
}

func writeTemplate(path string, tmpl *template.Template, data any) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()
	return tmpl.Execute(f, data)
}

// sanitizeName lowercases name and collapses anything non-alphanumeric into
// single underscores.
func sanitizeName(name string) string {
	words := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	})
	for i, w := range words {
		words[i] = strings.Map(func(r rune) rune {
			if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
				return r
			}
			return -1
		}, w)
	}
	return strings.Join(strings.FieldsFunc(strings.Join(words, " "), func(r rune) bool { return r == ' ' }), "_")
}

// Listed is one migration found in a source
type Listed struct {
	Version uint
	Name    string
}

// ListMigrations returns the up migrations in fsys ordered by version.
func ListMigrations(fsys fs.FS) ([]Listed, error) {
	paths, err := fs.Glob(fsys, "*.up.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}
	out := make([]Listed, 0, len(paths))
	for _, p := range paths {
		name := strings.TrimSuffix(p, ".up.sql")
		m := versionPattern.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		v, err := strconv.ParseUint(m[1], 10, 32)
		if err != nil {
			continue
		}
		out = append(out, Listed{Version: uint(v), Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}
