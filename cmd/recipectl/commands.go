package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/recipeapi/recipeapi/internal/service"
)

const (
	formatPlain = "plain"
	formatJSON  = "json"
)

// storeFlags returns the connection flags followed by extra. Flags are
// built per command because a flag value carries parse state.
func storeFlags(extra ...cli.Flag) []cli.Flag {
	return append([]cli.Flag{
		databaseURLFlag(),
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "Redis URL; when set, cached identities are invalidated immediately",
			Sources: cli.EnvVars("REDIS_URL"),
		},
	}, extra...)
}

func emailFlag() cli.Flag {
	return &cli.StringFlag{Name: "email", Usage: "account email", Required: true}
}

func passwordFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "password",
		Usage:    "account password",
		Sources:  cli.EnvVars("RECIPECTL_PASSWORD"),
		Required: true,
	}
}

func databaseURLFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "database-url",
		Usage:    "PostgreSQL connection URL",
		Sources:  cli.EnvVars("DATABASE_URL"),
		Required: true,
	}
}

func newApp(b backend) *cli.Command {
	return &cli.Command{
		Name:  "recipectl",
		Usage: "Administer the recipe API: migrations, users and tokens",
		Commands: []*cli.Command{
			migrateCmd(b),
			userCmd(b),
			tokenCmd(b),
		},
	}
}

func migrateCmd(b backend) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply or roll back the embedded schema migrations",
		Commands: []*cli.Command{
			{
				Name:  "up",
				Usage: "Apply all pending migrations",
				Flags: []cli.Flag{databaseURLFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					status, err := b.migrateUp(cmd.String("database-url"))
					if err != nil {
						return fmt.Errorf("migrate up: %w", err)
					}
					printStatus(cmd.Root().Writer, "up", status)
					return nil
				},
			},
			{
				Name:  "down",
				Usage: "Roll back migrations",
				Flags: []cli.Flag{
					databaseURLFlag(),
					&cli.IntFlag{
						Name:  "steps",
						Usage: "number of migrations to roll back; 0 rolls back everything",
						Value: 1,
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					steps := int(cmd.Int("steps"))
					if steps < 0 {
						return errors.New("--steps must not be negative")
					}
					status, err := b.migrateDown(cmd.String("database-url"), steps)
					if err != nil {
						return fmt.Errorf("migrate down: %w", err)
					}
					printStatus(cmd.Root().Writer, "down", status)
					return nil
				},
			},
			{
				Name:  "version",
				Usage: "Print the applied schema version",
				Flags: []cli.Flag{databaseURLFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					status, err := b.migrateStatus(cmd.String("database-url"))
					if err != nil {
						return fmt.Errorf("migrate version: %w", err)
					}
					printStatus(cmd.Root().Writer, "version", status)
					return nil
				},
			},
		},
	}
}

func userCmd(b backend) *cli.Command {
	return &cli.Command{
		Name:  "user",
		Usage: "Manage user accounts",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Register a user with the same rules as the API",
				Flags: storeFlags(
					emailFlag(),
					passwordFlag(),
					&cli.StringFlag{Name: "name", Usage: "display name", Required: true},
				),
				Action: withServices(b, service.TokenConfig{}, func(ctx context.Context, cmd *cli.Command, svc *services) error {
					email, password, name := cmd.String("email"), cmd.String("password"), cmd.String("name")
					user, err := svc.users.Register(ctx, service.RegisterInput{
						Email:    &email,
						Password: &password,
						Name:     &name,
					})
					if err != nil {
						return describe(err)
					}
					fmt.Fprintf(cmd.Root().Writer, "created user %s (%s)\n", user.Email, user.ID)
					return nil
				}),
			},
			setActiveCmd(b, "deactivate", false),
			setActiveCmd(b, "activate", true),
		},
	}
}

func setActiveCmd(b backend, name string, active bool) *cli.Command {
	usage := "Re-enable a user"
	if !active {
		usage = "Disable a user and revoke all of their tokens"
	}

	return &cli.Command{
		Name:  name,
		Usage: usage,
		Flags: storeFlags(emailFlag()),
		Action: withServices(b, service.TokenConfig{}, func(ctx context.Context, cmd *cli.Command, svc *services) error {
			user, err := svc.users.SetActive(ctx, cmd.String("email"), active)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(cmd.Root().Writer, "%sd user %s\n", name, user.Email)
			return nil
		}),
	}
}

func tokenCmd(b backend) *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Manage API tokens",
		Commands: []*cli.Command{
			{
				Name:  "issue",
				Usage: "Exchange credentials for a new token",
				Flags: storeFlags(
					emailFlag(),
					passwordFlag(),
					&cli.StringFlag{
						Name:    "env",
						Usage:   "token environment (live or test)",
						Value:   "live",
						Sources: cli.EnvVars("TOKEN_ENV"),
					},
					&cli.DurationFlag{
						Name:    "ttl",
						Usage:   "token lifetime; 0 never expires",
						Value:   720 * time.Hour,
						Sources: cli.EnvVars("TOKEN_TTL"),
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"o"},
						Usage:   "output format (plain or json)",
						Value:   formatPlain,
					},
				),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					format := strings.ToLower(cmd.String("format"))
					if format != formatPlain && format != formatJSON {
						return fmt.Errorf("unknown output format: %q", format)
					}
					tokenCfg := service.TokenConfig{Env: cmd.String("env"), TTL: cmd.Duration("ttl")}
					if tokenCfg.Env != "live" && tokenCfg.Env != "test" {
						return fmt.Errorf("invalid token environment: %q", tokenCfg.Env)
					}
					if tokenCfg.TTL < 0 {
						return errors.New("--ttl must not be negative")
					}

					return withServices(b, tokenCfg, func(ctx context.Context, cmd *cli.Command, svc *services) error {
						email, password := cmd.String("email"), cmd.String("password")
						issued, err := svc.tokens.Issue(ctx, service.Credentials{Email: &email, Password: &password})
						if err != nil {
							return describe(err)
						}
						return writeToken(cmd.Root().Writer, format, issued)
					})(ctx, cmd)
				},
			},
		},
	}
}

type tokenOutput struct {
	Token     string     `json:"token"`
	ExpiresAt *time.Time `json:"expires_at"`
	UserID    string     `json:"user_id"`
}

func writeToken(w io.Writer, format string, issued *service.IssuedToken) error {
	if format == formatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(tokenOutput{
			Token:     issued.Token,
			ExpiresAt: issued.ExpiresAt,
			UserID:    issued.User.ID,
		})
	}
	_, err := fmt.Fprintln(w, issued.Token)
	return err
}

// withServices opens the stores for the duration of one action.
func withServices(b backend, tokenCfg service.TokenConfig, fn func(context.Context, *cli.Command, *services) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		svc, err := b.open(ctx, storeOptions{
			DatabaseURL: cmd.String("database-url"),
			RedisURL:    cmd.String("redis-url"),
			Token:       tokenCfg,
		})
		if err != nil {
			return err
		}
		defer svc.close()

		return fn(ctx, cmd, svc)
	}
}

// describe turns service errors into operator-facing messages.
func describe(err error) error {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		if len(ve.Fields) == 0 {
			return errors.New(ve.Message)
		}
		return errors.New(strings.TrimPrefix(ve.Error(), "validation: "))
	case errors.Is(err, service.ErrUserNotFound):
		return errors.New("no user with that email")
	default:
		return err
	}
}
