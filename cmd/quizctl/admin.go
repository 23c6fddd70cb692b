package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizhub-backend/internal/config"
	"github.com/stemsi/quizhub-backend/internal/database"
	"github.com/stemsi/quizhub-backend/internal/logger"
	"github.com/stemsi/quizhub-backend/internal/model"
	"github.com/stemsi/quizhub-backend/internal/repository"
	"github.com/stemsi/quizhub-backend/internal/service"
	"golang.org/x/term"
)

// backend holds the connections and services shared by the database commands.
type backend struct {
	cfg   *config.Config
	log   zerolog.Logger
	pool  *pgxpool.Pool
	rdb   *redis.Client
	users *repository.UserRepository
	auth  *service.AuthService
	quiz  *service.QuizService
}

func connect(ctx context.Context) (*backend, error) {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		pool.Close()
		return nil, err
	}

	users := repository.NewUserRepository(pool)
	quizRepo := repository.NewQuizRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)

	return &backend{
		cfg:   cfg,
		log:   log,
		pool:  pool,
		rdb:   rdb,
		users: users,
		auth:  service.NewAuthService(cfg, rdb, users, log),
		quiz:  service.NewQuizService(quizRepo, questionRepo, rdb, cfg, log),
	}, nil
}

func (b *backend) Close() {
	_ = b.rdb.Close()
	b.pool.Close()
}

// findUser accepts an email address or an identity-provider subject.
func (b *backend) findUser(ctx context.Context, ref string) (*model.User, error) {
	var (
		user *model.User
		err  error
	)
	if strings.Contains(ref, "@") {
		user, err = b.users.GetByEmail(ctx, ref)
	} else {
		user, err = b.users.GetByExternalID(ctx, ref)
	}
	if err != nil {
		return nil, fmt.Errorf("user %q: %w", ref, err)
	}
	return user, nil
}

// ─── import / export ────────────────────────────────────────────────

func runImport(args []string) error {
	fs := newFlagSet("import")
	in := fs.String("in", "", "input file (required)")
	format := fs.String("format", "", "input format, detected from -in when empty")
	owner := fs.String("user", "", "owner email or subject (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" || *owner == "" {
		return errors.New("-in and -user are required")
	}

	f, err := resolveFormat(*format, *in)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(*in)
	if err != nil {
		return err
	}

	ctx := context.Background()
	b, err := connect(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	user, err := b.findUser(ctx, *owner)
	if err != nil {
		return err
	}
	quiz, questions, err := b.quiz.Import(ctx, user.ID, f, data)
	if err != nil {
		return err
	}

	b.log.Info().
		Str("quiz_id", quiz.ID.String()).
		Str("title", quiz.Title).
		Int("questions", len(questions)).
		Str("owner", user.Email).
		Msg("Quiz imported")
	return nil
}

func runExport(args []string) error {
	fs := newFlagSet("export")
	id := fs.String("quiz", "", "quiz ID (required)")
	out := fs.String("out", "", "output file, stdout when empty")
	format := fs.String("format", "", "output format, detected from -out when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}
	quizID, err := uuid.Parse(*id)
	if err != nil {
		return fmt.Errorf("-quiz: %w", err)
	}
	f, err := resolveFormat(*format, *out)
	if err != nil {
		return err
	}

	ctx := context.Background()
	b, err := connect(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	quiz, err := b.quiz.GetByID(ctx, quizID)
	if err != nil {
		return err
	}
	data, _, err := b.quiz.Export(ctx, quiz.ID, quiz.CreatorID, f)
	if err != nil {
		return err
	}
	return writeOutput(*out, data)
}

// ─── users ──────────────────────────────────────────────────────────

func runPromote(args []string) error {
	fs := newFlagSet("promote")
	ref := fs.String("user", "", "user email or subject (required)")
	demote := fs.Bool("demote", false, "set the general role instead")
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *ref == "" {
		return errors.New("-user is required")
	}

	role := model.RoleQuizMaster
	if *demote {
		role = model.RoleGeneral
	}

	ctx := context.Background()
	b, err := connect(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	user, err := b.findUser(ctx, *ref)
	if err != nil {
		return err
	}
	if user.Role == role {
		fmt.Printf("%s <%s> already has role %s\n", user.Name, user.Email, role)
		return nil
	}

	if !*yes && term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Printf("Change role of %s <%s> from %s to %s? [y/N]: ", user.Name, user.Email, user.Role, role)
		answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if !strings.EqualFold(strings.TrimSpace(answer), "y") {
			fmt.Println("Aborted")
			return nil
		}
	}

	if err := b.auth.UpdateRole(ctx, user, role); err != nil {
		return err
	}
	fmt.Printf("%s <%s> is now %s\n", user.Name, user.Email, role)
	return nil
}

// runToken signs a token with the configured secret. It needs no database.
func runToken(args []string) error {
	fs := newFlagSet("token")
	subject := fs.String("sub", "", "subject (required)")
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "email address")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *subject == "" {
		return errors.New("-sub is required")
	}

	cfg := config.Load()
	auth := service.NewAuthService(cfg, nil, nil, zerolog.Nop())
	token, err := auth.IssueToken(*subject, *name, *email, *ttl)
	if err != nil {
		return err
	}
	return writeStdout(os.Stdout, []byte(token))
}
