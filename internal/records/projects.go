package records

import (
	"context"
	"strings"
	"time"

	"github.com/teemow/leadcal/internal/apperror"
)

// Project sheet columns.
const (
	ProjectID          Field = "Id"
	ProjectName        Field = "Nombre"
	ProjectDescription Field = "Descripcion"
	ProjectService     Field = "Servicio"
	ProjectStatus      Field = "Estado"
	ProjectNote        Field = "Nota"
	ProjectStart       Field = "Fecha_Inicio"
	ProjectEnd         Field = "Fecha_Fin"
	ProjectClientID    Field = "Id_Cliente"
)

// DefaultProjectStatus is set on new projects.
const DefaultProjectStatus = "En Progreso"

// ProjectSchema returns the schema of the projects sheet.
func ProjectSchema(sheet string) Schema {
	return Schema{
		Sheet: sheet,
		Key:   ProjectID,
		Fields: []Field{
			ProjectID, ProjectName, ProjectDescription, ProjectService, ProjectStatus,
			ProjectNote, ProjectStart, ProjectEnd, ProjectClientID,
		},
	}
}

// Projects manages client projects.
type Projects struct {
	store Store
	loc   *time.Location
	now   func() time.Time
}

// NewProjects creates a project repository.
func NewProjects(store Store, loc *time.Location) *Projects {
	return &Projects{store: store, loc: loc, now: time.Now}
}

// NewProject is the input for Create.
type NewProject struct {
	Name        string
	ClientID    string
	Service     string
	Description string
	Start       string
	End         string
	Status      string
	Note        string
}

// Create inserts a project with id PRJ-<timestamp>. The start date defaults
// to the creation time.
func (p *Projects) Create(ctx context.Context, in NewProject) (Record, error) {
	const op = "create_project"
	in.Name = strings.TrimSpace(in.Name)
	in.ClientID = strings.TrimSpace(in.ClientID)
	if in.Name == "" || in.ClientID == "" {
		return nil, apperror.Input(op, "nombre and id_cliente are required")
	}
	for _, d := range []string{in.Start, in.End} {
		if d != "" && !validDate(d, p.loc) {
			return nil, apperror.Input(op, "dates must be formatted as %s or %s", TimestampLayout, DateLayout)
		}
	}

	now := p.now().In(p.loc)
	if in.Start == "" {
		in.Start = now.Format(TimestampLayout)
	}
	if in.Status == "" {
		in.Status = DefaultProjectStatus
	}

	rec := Record{
		ProjectID:          "PRJ-" + now.Format("20060102150405"),
		ProjectName:        in.Name,
		ProjectDescription: in.Description,
		ProjectService:     in.Service,
		ProjectStatus:      in.Status,
		ProjectNote:        in.Note,
		ProjectStart:       in.Start,
		ProjectEnd:         in.End,
		ProjectClientID:    in.ClientID,
	}
	if _, err := p.store.Insert(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Get returns a project by id.
func (p *Projects) Get(ctx context.Context, id string) (Record, error) {
	return getByKey(ctx, p.store, "get_project", "project", id)
}

// ListByClient returns the projects of a client.
func (p *Projects) ListByClient(ctx context.Context, clientID string) ([]Record, error) {
	return listByField(ctx, p.store, "list_client_projects", ProjectClientID, clientID)
}

// ListByDate returns projects whose start date is date (YYYY-MM-DD prefix).
func (p *Projects) ListByDate(ctx context.Context, date string) ([]Record, error) {
	return listByDatePrefix(ctx, p.store, "list_projects_by_date", ProjectStart, date)
}

// Update writes fields of a project. Keys must be column names.
func (p *Projects) Update(ctx context.Context, id string, fields map[string]any) ([]Field, error) {
	return updateByKey(ctx, p.store, "update_project", "project", id, fields)
}

// UpdateClientNotes sets the note on every project of a client and returns
// the ids updated.
func (p *Projects) UpdateClientNotes(ctx context.Context, clientID, note string) ([]string, error) {
	const op = "update_client_project_notes"
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return nil, apperror.Input(op, "id_cliente is required")
	}
	if strings.TrimSpace(note) == "" {
		return nil, apperror.Input(op, "nota is required")
	}

	projects, err := p.store.FindAll(ctx, FieldEquals(ProjectClientID, clientID))
	if err != nil {
		return nil, err
	}
	if len(projects) == 0 {
		return nil, apperror.NotFound(op, "no projects found for client %q", clientID)
	}

	ids := make([]string, 0, len(projects))
	for _, rec := range projects {
		id := rec[ProjectID]
		if _, err := p.store.Update(ctx, id, Record{ProjectNote: note}); err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Delete removes a project.
func (p *Projects) Delete(ctx context.Context, id string) error {
	return deleteByKey(ctx, p.store, "delete_project", "project", id)
}
