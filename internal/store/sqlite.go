package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/stgmed/assistant/internal/domain"
)

// SQLiteStore implements Store on SQLite, for deployments that want chat
// history and case studies to survive restarts. AUTOINCREMENT gives the
// same never-reused, strictly increasing identifiers as the memory store,
// and row updates keep the session and identity views trivially consistent
// since there is only one row.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dsn and migrates it.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across
	// goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS chat_messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			sources TEXT,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chat_messages_session ON chat_messages(session_id, id)`,
		`CREATE TABLE IF NOT EXISTS case_studies (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			illness TEXT NOT NULL,
			case_description TEXT NOT NULL,
			correct_diagnosis TEXT NOT NULL,
			correct_treatment TEXT NOT NULL,
			user_diagnosis TEXT,
			user_treatment TEXT,
			diagnosis_score INTEGER,
			treatment_score INTEGER,
			feedback TEXT,
			is_completed INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_case_studies_session ON case_studies(session_id, id)`,
	}
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) AppendMessage(ctx context.Context, sessionID string, role domain.Role, content string, sources []domain.Source) (*domain.ChatMessage, error) {
	var sourcesJSON sql.NullString
	if sources != nil {
		data, err := json.Marshal(sources)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal sources: %w", err)
		}
		sourcesJSON = sql.NullString{String: string(data), Valid: true}
	}

	createdAt := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_messages (session_id, role, content, sources, created_at) VALUES (?, ?, ?, ?, ?)`,
		sessionID, string(role), content, sourcesJSON, createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read message id: %w", err)
	}

	return &domain.ChatMessage{
		ID:        id,
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Sources:   cloneSources(sources),
		CreatedAt: createdAt,
	}, nil
}

func (s *SQLiteStore) ListMessages(ctx context.Context, sessionID string) ([]domain.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, role, content, sources, created_at FROM chat_messages WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ChatMessage, 0)
	for rows.Next() {
		var (
			msg         domain.ChatMessage
			role        string
			sourcesJSON sql.NullString
		)
		if err := rows.Scan(&msg.ID, &msg.SessionID, &role, &msg.Content, &sourcesJSON, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.Role = domain.Role(role)
		if sourcesJSON.Valid {
			if err := json.Unmarshal([]byte(sourcesJSON.String), &msg.Sources); err != nil {
				return nil, fmt.Errorf("failed to unmarshal sources for message %d: %w", msg.ID, err)
			}
		}
		out = append(out, msg)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CreateCaseStudy(ctx context.Context, draft domain.CaseStudyDraft) (*domain.CaseStudy, error) {
	createdAt := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO case_studies (session_id, illness, case_description, correct_diagnosis, correct_treatment, is_completed, created_at)
		 VALUES (?, ?, ?, ?, ?, 0, ?)`,
		draft.SessionID, draft.Illness, draft.CaseDescription, draft.CorrectDiagnosis, draft.CorrectTreatment, createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert case study: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read case study id: %w", err)
	}

	return &domain.CaseStudy{
		ID:               id,
		SessionID:        draft.SessionID,
		Illness:          draft.Illness,
		CaseDescription:  draft.CaseDescription,
		CorrectDiagnosis: draft.CorrectDiagnosis,
		CorrectTreatment: draft.CorrectTreatment,
		IsCompleted:      false,
		CreatedAt:        createdAt,
	}, nil
}

func (s *SQLiteStore) UpdateCaseStudy(ctx context.Context, id int64, update domain.CaseStudyUpdate) (*domain.CaseStudy, error) {
	sets := make([]string, 0, 6)
	args := make([]interface{}, 0, 7)
	if update.UserDiagnosis != nil {
		sets = append(sets, "user_diagnosis = ?")
		args = append(args, *update.UserDiagnosis)
	}
	if update.UserTreatment != nil {
		sets = append(sets, "user_treatment = ?")
		args = append(args, *update.UserTreatment)
	}
	if update.DiagnosisScore != nil {
		sets = append(sets, "diagnosis_score = ?")
		args = append(args, *update.DiagnosisScore)
	}
	if update.TreatmentScore != nil {
		sets = append(sets, "treatment_score = ?")
		args = append(args, *update.TreatmentScore)
	}
	if update.Feedback != nil {
		sets = append(sets, "feedback = ?")
		args = append(args, *update.Feedback)
	}
	if update.IsCompleted != nil {
		sets = append(sets, "is_completed = ?")
		args = append(args, boolToInt(*update.IsCompleted))
	}

	if len(sets) > 0 {
		args = append(args, id)
		query := "UPDATE case_studies SET " + strings.Join(sets, ", ") + " WHERE id = ?"
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to update case study: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to read affected rows: %w", err)
		}
		if affected == 0 {
			return nil, domain.ErrNotFound
		}
	}

	return s.GetCaseStudyByID(ctx, id)
}

func (s *SQLiteStore) GetCaseStudyByID(ctx context.Context, id int64) (*domain.CaseStudy, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, session_id, illness, case_description, correct_diagnosis, correct_treatment,
		        user_diagnosis, user_treatment, diagnosis_score, treatment_score, feedback, is_completed, created_at
		 FROM case_studies WHERE id = ?`,
		id,
	)
	cs, err := scanCaseStudy(row)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	return cs, err
}

func (s *SQLiteStore) ListCaseStudies(ctx context.Context, sessionID string) ([]domain.CaseStudy, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, illness, case_description, correct_diagnosis, correct_treatment,
		        user_diagnosis, user_treatment, diagnosis_score, treatment_score, feedback, is_completed, created_at
		 FROM case_studies WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query case studies: %w", err)
	}
	defer rows.Close()

	out := make([]domain.CaseStudy, 0)
	for rows.Next() {
		cs, err := scanCaseStudy(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *cs)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCaseStudy(row rowScanner) (*domain.CaseStudy, error) {
	var (
		cs             domain.CaseStudy
		userDiagnosis  sql.NullString
		userTreatment  sql.NullString
		diagnosisScore sql.NullInt64
		treatmentScore sql.NullInt64
		feedback       sql.NullString
		isCompleted    int
	)
	err := row.Scan(
		&cs.ID, &cs.SessionID, &cs.Illness, &cs.CaseDescription,
		&cs.CorrectDiagnosis, &cs.CorrectTreatment,
		&userDiagnosis, &userTreatment, &diagnosisScore, &treatmentScore,
		&feedback, &isCompleted, &cs.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan case study: %w", err)
	}
	if userDiagnosis.Valid {
		cs.UserDiagnosis = &userDiagnosis.String
	}
	if userTreatment.Valid {
		cs.UserTreatment = &userTreatment.String
	}
	if diagnosisScore.Valid {
		v := int(diagnosisScore.Int64)
		cs.DiagnosisScore = &v
	}
	if treatmentScore.Valid {
		v := int(treatmentScore.Int64)
		cs.TreatmentScore = &v
	}
	if feedback.Valid {
		cs.Feedback = &feedback.String
	}
	cs.IsCompleted = isCompleted != 0
	return &cs, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
