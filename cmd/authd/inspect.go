package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/goliatone/go-print"
	"github.com/spf13/cobra"

	authd "github.com/goliatone/go-authd"
)

// NewInspectCmd creates the inspect subcommand, a read-only console
// viewer over the service's own schema. Debug tooling; it shares the
// tables with the core but none of its logic.
func NewInspectCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Dump users and sessions from the store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInspect(cmd.Context(), asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON instead of tables")

	return cmd
}

func runInspect(ctx context.Context, asJSON bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := authd.NewRepositoryManager(db)

	users, err := repo.Users().List(ctx)
	if err != nil {
		return err
	}

	sessions, err := repo.Sessions().List(ctx)
	if err != nil {
		return err
	}

	if asJSON {
		fmt.Println(print.MaybePrettyJSON(inspectPayload(users, sessions)))
		return nil
	}

	printUsers(os.Stdout, users)
	printSessions(os.Stdout, sessions)

	return nil
}

// inspectPayload is the JSON projection: public user profiles, never
// the stored hashes.
func inspectPayload(users []*authd.User, sessions []*authd.Session) map[string]any {
	profiles := make([]authd.UserProfile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, u.Profile())
	}
	return map[string]any{
		"users":    profiles,
		"sessions": sessions,
	}
}

func printUsers(out io.Writer, users []*authd.User) {
	fmt.Fprintln(out, "USERS")

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tROLE\tCREATED\tLAST LOGIN")
	for _, u := range users {
		email := "-"
		if u.Email != nil {
			email = *u.Email
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			u.ID,
			u.Username,
			email,
			u.Role,
			u.CreatedAt.Format(time.DateOnly),
			formatLastLogin(u.LastLogin),
		)
	}
	w.Flush()
}

func printSessions(out io.Writer, sessions []*authd.Session) {
	fmt.Fprintln(out, "\nLOGIN SESSIONS")

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSER\tCREATED\tEXPIRES\tACTIVE")
	for _, s := range sessions {
		username := fmt.Sprintf("user:%d", s.UserID)
		if s.User != nil {
			username = s.User.Username
		}
		active := "no"
		if s.Active {
			active = "yes"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			s.ID,
			username,
			s.CreatedAt.Format(time.DateOnly),
			s.ExpiresAt.Format(time.DateOnly),
			active,
		)
	}
	w.Flush()
}

func formatLastLogin(at *time.Time) string {
	if at == nil {
		return "never"
	}
	return at.Format(time.DateOnly)
}
