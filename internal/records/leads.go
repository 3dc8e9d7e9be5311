package records

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/teemow/leadcal/internal/apperror"
	"github.com/teemow/leadcal/internal/logging"
)

// Lead sheet columns.
const (
	LeadID             Field = "Id"
	LeadName           Field = "Nombre"
	LeadPhone          Field = "Telefono"
	LeadEmail          Field = "Correo"
	LeadType           Field = "Tipo"
	LeadStatus         Field = "Estado"
	LeadNote           Field = "Nota"
	LeadUser           Field = "Usuario"
	LeadChannel        Field = "Canal"
	LeadAcquiredAt     Field = "Fecha Adquisición"
	LeadConversionDate Field = "Fecha Conversion"
)

// Allowed values.
var (
	LeadChannels = []string{"whatsapp", "web"}
	LeadTypes    = []string{"Lead", "Cliente"}
	LeadStatuses = []string{"Nuevo", "Contactado", "Calificado", "Negociación", "Ganado", "Perdido"}
)

// LeadSchema returns the schema of the lead sheet.
func LeadSchema(sheet string) Schema {
	return Schema{
		Sheet: sheet,
		Key:   LeadID,
		Fields: []Field{
			LeadID, LeadName, LeadPhone, LeadEmail, LeadType, LeadStatus,
			LeadNote, LeadUser, LeadChannel, LeadAcquiredAt, LeadConversionDate,
		},
	}
}

// Leads manages CRM leads.
type Leads struct {
	store  Store
	loc    *time.Location
	now    func() time.Time
	logger *slog.Logger
}

// NewLeads creates a lead repository.
func NewLeads(store Store, loc *time.Location) *Leads {
	return &Leads{store: store, loc: loc, now: time.Now, logger: slog.Default()}
}

// LeadQuery identifies a lead by any of phone, email or user.
type LeadQuery struct {
	Phone string
	Email string
	User  string
}

// Match is the result of Verify.
type Match struct {
	Exists    bool
	Lead      Record
	MatchedBy string
}

// Verify finds the first lead, in sheet order, matching the phone (digits
// only), the email (case-insensitive) or the user. Within a row the phone
// is checked first, then the email, then the user.
func (l *Leads) Verify(ctx context.Context, q LeadQuery) (*Match, error) {
	q.Phone = strings.TrimSpace(q.Phone)
	q.Email = strings.TrimSpace(q.Email)
	q.User = strings.TrimSpace(q.User)
	if q.Phone == "" && q.Email == "" && q.User == "" {
		return nil, apperror.Input("verify_client", "at least one identifier is required: telefono, correo or usuario")
	}

	phone := normalizePhone(q.Phone)
	matchedBy := ""
	rec, found, err := l.store.Find(ctx, func(r Record) bool {
		switch {
		case phone != "" && normalizePhone(r[LeadPhone]) == phone:
			matchedBy = "telefono"
		case q.Email != "" && strings.EqualFold(r[LeadEmail], q.Email):
			matchedBy = "correo"
		case q.User != "" && r[LeadUser] == q.User:
			matchedBy = "usuario"
		default:
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if !found {
		l.logger.Debug("lead not found", logging.Operation("verify_client"))
		return &Match{Exists: false}, nil
	}

	l.logger.Debug("lead found",
		logging.Operation("verify_client"),
		slog.String("client_id", rec[LeadID]),
		slog.String("matched_by", matchedBy))
	return &Match{Exists: true, Lead: rec, MatchedBy: matchedBy}, nil
}

// NewLead is the input for Create.
type NewLead struct {
	Name    string
	Channel string
	Phone   string
	Email   string
	Note    string
	User    string
}

// Create inserts a new lead with a generated id, type Lead and status Nuevo.
func (l *Leads) Create(ctx context.Context, in NewLead) (Record, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Channel = strings.ToLower(strings.TrimSpace(in.Channel))
	if in.Name == "" || in.Channel == "" {
		return nil, apperror.Input("create_client", "nombre and canal are required")
	}
	if !contains(LeadChannels, in.Channel) {
		return nil, apperror.Input("create_client", "canal must be one of %s", strings.Join(LeadChannels, ", "))
	}

	rec := Record{
		LeadID:             newShortID(),
		LeadName:           in.Name,
		LeadPhone:          strings.TrimSpace(in.Phone),
		LeadEmail:          strings.TrimSpace(in.Email),
		LeadType:           "Lead",
		LeadStatus:         "Nuevo",
		LeadNote:           in.Note,
		LeadUser:           strings.TrimSpace(in.User),
		LeadChannel:        in.Channel,
		LeadAcquiredAt:     l.now().In(l.loc).Format(TimestampLayout),
		LeadConversionDate: "",
	}
	if _, err := l.store.Insert(ctx, rec); err != nil {
		return nil, err
	}

	l.logger.Info("lead created",
		logging.Operation("create_client"),
		slog.String("client_id", rec[LeadID]),
		slog.String("channel", in.Channel))
	return rec, nil
}

// LeadUpdate holds the optional fields of an update. Nil means unchanged.
type LeadUpdate struct {
	Name           *string
	Phone          *string
	Email          *string
	Type           *string
	Status         *string
	Note           *string
	User           *string
	ConversionDate *string
}

// Update writes the provided fields of lead id and returns the fields
// written.
func (l *Leads) Update(ctx context.Context, id string, u LeadUpdate) ([]Field, error) {
	const op = "update_client"
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.Input(op, "client_id is required")
	}

	fields := Record{}
	set := func(f Field, v *string) {
		if v != nil {
			fields[f] = *v
		}
	}
	set(LeadName, u.Name)
	set(LeadPhone, u.Phone)
	set(LeadEmail, u.Email)
	set(LeadType, u.Type)
	set(LeadStatus, u.Status)
	set(LeadNote, u.Note)
	set(LeadUser, u.User)
	set(LeadConversionDate, u.ConversionDate)

	if len(fields) == 0 {
		return nil, apperror.Input(op, "no fields provided")
	}
	if v, ok := fields[LeadType]; ok && !contains(LeadTypes, v) {
		return nil, apperror.Input(op, "tipo must be one of %s", strings.Join(LeadTypes, ", "))
	}
	if v, ok := fields[LeadStatus]; ok && !contains(LeadStatuses, v) {
		return nil, apperror.Input(op, "estado must be one of %s", strings.Join(LeadStatuses, ", "))
	}
	if v, ok := fields[LeadConversionDate]; ok && v != "" && !validDate(v, l.loc) {
		return nil, apperror.Input(op, "fecha_conversion must be formatted as %s or %s", TimestampLayout, DateLayout)
	}

	written, err := l.store.Update(ctx, id, fields)
	if err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return nil, apperror.NotFound(op, "client with id %q not found", id)
		}
		return nil, err
	}
	return written, nil
}

func normalizePhone(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

const shortIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// newShortID returns six random alphanumeric characters.
func newShortID() string {
	u := uuid.New()
	id := make([]byte, 6)
	for i := range id {
		id[i] = shortIDAlphabet[int(u[i])%len(shortIDAlphabet)]
	}
	return string(id)
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

func validDate(v string, loc *time.Location) bool {
	if _, err := time.ParseInLocation(TimestampLayout, v, loc); err == nil {
		return true
	}
	_, err := time.ParseInLocation(DateLayout, v, loc)
	return err == nil
}
