package service

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Domain errors shared by the quiz, question and attempt services.
var (
	ErrNotFound          = errors.New("resource not found")
	ErrNotQuizCreator    = errors.New("not the creator of this quiz")
	ErrQuizNotPublished  = errors.New("quiz is not published")
	ErrNoQuestions       = errors.New("quiz has no questions")
	ErrNotAttemptOwner   = errors.New("not the owner of this attempt")
	ErrAttemptCompleted  = errors.New("attempt already completed")
	ErrDuplicateOrderNum = errors.New("question order already used in this quiz")
)

// notFound turns pgx.ErrNoRows into ErrNotFound and leaves other errors alone.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// isUniqueViolation reports whether err is a PostgreSQL unique_violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
