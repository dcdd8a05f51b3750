package schedule

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	contractx "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/agent/contract"
)

// Repo is the query surface over doctors, patients, and appointments.
// It runs against whatever bun handle it is given, so the same methods
// work inside and outside a transaction.
type Repo struct {
	db bun.IDB
}

var _ contractx.RosterProvider = (*Repo)(nil)

func NewRepo(db bun.IDB) *Repo {
	return &Repo{db: db}
}

// WithTx rebinds the repo onto a transaction.
func (r *Repo) WithTx(tx bun.Tx) *Repo {
	return &Repo{db: tx}
}

// InitSchema creates the scheduling tables and their indexes when
// absent. The partial unique index on active slots is the authoritative
// double-booking guard; the validator's conflict check is advisory.
func (r *Repo) InitSchema(ctx context.Context) error {
	models := []any{(*Doctor)(nil), (*Patient)(nil), (*Appointment)(nil)}
	for _, model := range models {
		q := r.db.NewCreateTable().Model(model).IfNotExists()
		if _, ok := model.(*Appointment); ok {
			q = q.ForeignKey(`("patient_id") REFERENCES "patients" ("id") ON DELETE CASCADE`).
				ForeignKey(`("doctor_id") REFERENCES "doctors" ("id") ON DELETE CASCADE`)
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", model, err)
		}
	}

	indexes := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS appointments_active_slot_idx
			ON appointments (doctor_id, appointment_date, appointment_time)
			WHERE status <> 'cancelled'`,
		`CREATE INDEX IF NOT EXISTS appointments_date_idx ON appointments (appointment_date)`,
		`CREATE INDEX IF NOT EXISTS appointments_status_idx ON appointments (status)`,
	}
	for _, ddl := range indexes {
		if _, err := r.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create appointments index: %w", err)
		}
	}
	return nil
}

/* ---- Doctors ---- */

// FindDoctorByName resolves a doctor by fuzzy, case-insensitive match so
// "ahuja" and "Dr. Rajesh Ahuja" land on the same row.
func (r *Repo) FindDoctorByName(ctx context.Context, name string) (*Doctor, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: empty doctor name", contractx.ErrNotFound)
	}

	doctor := new(Doctor)
	err := r.db.NewSelect().
		Model(doctor).
		Where("name ILIKE ?", "%"+name+"%").
		OrderExpr("id ASC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: doctor %q", contractx.ErrNotFound, name)
		}
		return nil, fmt.Errorf("find doctor by name: %w", err)
	}
	return doctor, nil
}

func (r *Repo) GetDoctor(ctx context.Context, id int64) (*Doctor, error) {
	doctor := new(Doctor)
	err := r.db.NewSelect().Model(doctor).Where("d.id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: doctor id %d", contractx.ErrNotFound, id)
		}
		return nil, fmt.Errorf("get doctor: %w", err)
	}
	return doctor, nil
}

// ListDoctors returns the roster, optionally filtered by a fuzzy
// specialization match.
func (r *Repo) ListDoctors(ctx context.Context, specialization string) ([]*Doctor, error) {
	var doctors []*Doctor
	q := r.db.NewSelect().Model(&doctors).OrderExpr("id ASC")
	if s := strings.TrimSpace(specialization); s != "" {
		q = q.Where("specialization ILIKE ?", "%"+s+"%")
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	return doctors, nil
}

// RosterSummary renders the doctor roster for the system prompt.
func (r *Repo) RosterSummary(ctx context.Context) (string, error) {
	doctors, err := r.ListDoctors(ctx, "")
	if err != nil {
		return "", err
	}
	if len(doctors) == 0 {
		return "No doctors are currently registered.", nil
	}

	lines := make([]string, 0, len(doctors))
	for _, d := range doctors {
		lines = append(lines, fmt.Sprintf("- %s (%s) - Available: %s",
			d.Name, d.Specialization, strings.Join(d.AvailableDays, ", ")))
	}
	return strings.Join(lines, "\n"), nil
}

/* ---- Patients ---- */

// FindOrCreatePatient resolves a patient by email, registering them on
// first contact.
func (r *Repo) FindOrCreatePatient(ctx context.Context, name, email string) (*Patient, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("%w: empty patient email", contractx.ErrValidation)
	}

	patient := new(Patient)
	err := r.db.NewSelect().Model(patient).Where("email = ?", email).Limit(1).Scan(ctx)
	if err == nil {
		return patient, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find patient: %w", err)
	}

	now := time.Now().UTC()
	patient = &Patient{
		Name:      strings.TrimSpace(name),
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := r.db.NewInsert().Model(patient).Exec(ctx); err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}
	return patient, nil
}

/* ---- Appointments ---- */

// ActiveAppointmentsOn returns the doctor's non-cancelled appointments
// for one date, ordered by start time.
func (r *Repo) ActiveAppointmentsOn(ctx context.Context, doctorID int64, date time.Time) ([]*Appointment, error) {
	var appts []*Appointment
	err := r.db.NewSelect().
		Model(&appts).
		Where("doctor_id = ?", doctorID).
		Where("appointment_date = ?", DateOnly(date)).
		Where("status <> ?", StatusCancelled).
		OrderExpr("appointment_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active appointments: %w", err)
	}
	return appts, nil
}

// CreateAppointment inserts the row. A unique-index rejection surfaces
// as ErrConflict so callers can answer with alternatives.
func (r *Repo) CreateAppointment(ctx context.Context, appt *Appointment) error {
	now := time.Now().UTC()
	if appt.CreatedAt.IsZero() {
		appt.CreatedAt = now
	}
	appt.UpdatedAt = now
	if appt.Status == "" {
		appt.Status = StatusScheduled
	}

	if _, err := r.db.NewInsert().Model(appt).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: doctor %d at %s %s", contractx.ErrConflict,
				appt.DoctorID, DateString(appt.AppointmentDate), appt.AppointmentTime.HHMM())
		}
		return fmt.Errorf("create appointment: %w", err)
	}
	return nil
}

// SetCalendarEventID records the external calendar placeholder id.
func (r *Repo) SetCalendarEventID(ctx context.Context, id int64, eventID string) error {
	if _, err := r.db.NewUpdate().
		Model((*Appointment)(nil)).
		Set("google_calendar_event_id = ?", eventID).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Exec(ctx); err != nil {
		return fmt.Errorf("set calendar event id: %w", err)
	}
	return nil
}

func (r *Repo) GetAppointment(ctx context.Context, id int64) (*Appointment, error) {
	appt := new(Appointment)
	err := r.db.NewSelect().
		Model(appt).
		Relation("Patient").
		Relation("Doctor").
		Where("a.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: appointment id %d", contractx.ErrNotFound, id)
		}
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return appt, nil
}

// AppointmentFilter narrows ListAppointments. Zero values mean "any".
type AppointmentFilter struct {
	DoctorID     int64
	PatientEmail string
	Date         time.Time
	Status       string
}

func (r *Repo) ListAppointments(ctx context.Context, filter AppointmentFilter) ([]*Appointment, error) {
	var appts []*Appointment
	q := r.db.NewSelect().
		Model(&appts).
		Relation("Patient").
		Relation("Doctor").
		OrderExpr("appointment_date ASC, appointment_time ASC")

	if filter.DoctorID > 0 {
		q = q.Where("a.doctor_id = ?", filter.DoctorID)
	}
	if email := strings.TrimSpace(filter.PatientEmail); email != "" {
		q = q.Where("a.patient_id IN (SELECT id FROM patients WHERE email = ?)", email)
	}
	if !filter.Date.IsZero() {
		q = q.Where("a.appointment_date = ?", DateOnly(filter.Date))
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		q = q.Where("a.status = ?", status)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appts, nil
}

// AppointmentsBetween returns the doctor's appointments inside the
// inclusive date range, patients attached.
func (r *Repo) AppointmentsBetween(ctx context.Context, doctorID int64, start, end time.Time) ([]*Appointment, error) {
	var appts []*Appointment
	err := r.db.NewSelect().
		Model(&appts).
		Relation("Patient").
		Where("a.doctor_id = ?", doctorID).
		Where("a.appointment_date >= ?", DateOnly(start)).
		Where("a.appointment_date <= ?", DateOnly(end)).
		OrderExpr("appointment_date ASC, appointment_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list appointments in range: %w", err)
	}
	return appts, nil
}

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == "23505"
	}
	return false
}
