package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/pkg/client"
)

type env struct {
	api  *client.Client
	out  io.Writer
	json bool
}

type command struct {
	name    string
	summary string
	flags   func(*pflag.FlagSet)
	run     func(ctx context.Context, e *env, args []string) error
}

var commands []*command

func findCommand(name string) (*command, bool) {
	for _, cmd := range commands {
		if cmd.name == name {
			return cmd, true
		}
	}
	return nil, false
}

func init() {
	commands = []*command{
		loginCommand(),
		{name: "logout", summary: "end the session", run: func(ctx context.Context, e *env, _ []string) error {
			if err := e.api.Logout(ctx); err != nil {
				return err
			}
			fmt.Fprintln(e.out, e.api.Route())
			return nil
		}},
		{name: "whoami", summary: "show the session and its landing route", run: runWhoami},
		registerCommand(),
		{name: "verify-email", summary: "redeem an email verification token", run: func(ctx context.Context, e *env, args []string) error {
			if len(args) != 1 {
				return errors.New("usage: verify-email <token>")
			}
			return e.api.VerifyEmail(ctx, args[0])
		}},
		{name: "forgot-password", summary: "request a password reset", run: func(ctx context.Context, e *env, args []string) error {
			if len(args) != 1 {
				return errors.New("usage: forgot-password <email>")
			}
			return e.api.ForgotPassword(ctx, args[0])
		}},
		{name: "reset-password", summary: "set a new password with a reset token", run: func(ctx context.Context, e *env, args []string) error {
			if len(args) != 2 {
				return errors.New("usage: reset-password <token> <new-password>")
			}
			return e.api.ResetPassword(ctx, args[0], args[1])
		}},
		ticketsCommand(),
		{name: "show", summary: "show one ticket", run: func(ctx context.Context, e *env, args []string) error {
			id, err := ticketArg(args, 1, "show <ticket-id>")
			if err != nil {
				return err
			}
			ticket, err := e.api.GetTicket(ctx, id)
			if err != nil {
				return err
			}
			return e.printTickets([]client.Ticket{*ticket})
		}},
		createCommand(),
		{name: "status", summary: "change ticket status (staff)", run: runStatus},
		resolveCommand(),
		{name: "assign", summary: "assign a ticket to an agent (admin)", run: func(ctx context.Context, e *env, args []string) error {
			if len(args) != 2 {
				return errors.New("usage: assign <ticket-id> <agent-id>")
			}
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid ticket id %q", args[0])
			}
			agentID, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid agent id %q", args[1])
			}
			ticket, err := e.api.Assign(ctx, id, agentID)
			if err != nil {
				return err
			}
			return e.printTickets([]client.Ticket{*ticket})
		}},
		{name: "agents", summary: "list assignable agents (admin)", run: func(ctx context.Context, e *env, _ []string) error {
			agents, err := e.api.AssignableAgents(ctx)
			if err != nil {
				return err
			}
			return e.printUsers(agents)
		}},
		{name: "notes", summary: "list internal notes (staff)", run: func(ctx context.Context, e *env, args []string) error {
			id, err := ticketArg(args, 1, "notes <ticket-id>")
			if err != nil {
				return err
			}
			notes, err := e.api.ListNotes(ctx, id)
			if err != nil {
				return err
			}
			if e.json {
				return e.printJSON(notes)
			}
			w := tabwriter.NewWriter(e.out, 2, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tAUTHOR\tCREATED\tTEXT")
			for _, n := range notes {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", n.ID, n.Author, n.CreatedAt.Format("2006-01-02 15:04"), n.Text)
			}
			return w.Flush()
		}},
		{name: "note", summary: "add an internal note (staff)", run: func(ctx context.Context, e *env, args []string) error {
			if len(args) < 2 {
				return errors.New("usage: note <ticket-id> <text>")
			}
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid ticket id %q", args[0])
			}
			note, err := e.api.AddNote(ctx, id, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(e.out, "note %d added\n", note.ID)
			return nil
		}},
		{name: "history", summary: "show a ticket's audit trail", run: func(ctx context.Context, e *env, args []string) error {
			id, err := ticketArg(args, 1, "history <ticket-id>")
			if err != nil {
				return err
			}
			entries, err := e.api.History(ctx, id)
			if err != nil {
				return err
			}
			if e.json {
				return e.printJSON(entries)
			}
			w := tabwriter.NewWriter(e.out, 2, 0, 3, ' ', 0)
			fmt.Fprintln(w, "WHEN\tCHANGE\tFROM\tTO")
			for _, h := range entries {
				fmt.Fprintf(w, "%s\t%s\t%v\t%v\n", h.CreatedAt.Format("2006-01-02 15:04"), h.ChangeType, h.OldValue, h.NewValue)
			}
			return w.Flush()
		}},
		{name: "options", summary: "list ticket categories and impacts", run: func(ctx context.Context, e *env, _ []string) error {
			opts, err := e.api.Options(ctx)
			if err != nil {
				return err
			}
			return e.printJSON(opts)
		}},
		usersCommand(),
		userAddCommand(),
		reportCommand(),
		{name: "theme", summary: "show or set the colour theme", run: func(ctx context.Context, e *env, args []string) error {
			if len(args) == 0 {
				fmt.Fprintln(e.out, e.api.Theme())
				return nil
			}
			return e.api.SetTheme(ctx, domain.Theme(args[0]))
		}},
	}
}

func loginCommand() *command {
	var email, password string
	return &command{
		name:    "login",
		summary: "log in and store the session",
		flags: func(fs *pflag.FlagSet) {
			fs.StringVar(&email, "email", "", "account email")
			fs.StringVar(&password, "password", os.Getenv("HELPDESK_PASSWORD"), "account password (or HELPDESK_PASSWORD)")
		},
		run: func(ctx context.Context, e *env, _ []string) error {
			route, err := e.api.Login(ctx, email, password)
			if err != nil {
				return err
			}
			fmt.Fprintln(e.out, route)
			return nil
		},
	}
}

func runWhoami(_ context.Context, e *env, _ []string) error {
	sess := e.api.Session()
	if sess == nil {
		fmt.Fprintln(e.out, "not logged in")
		fmt.Fprintln(e.out, e.api.Route())
		return nil
	}
	if e.json {
		return e.printJSON(map[string]any{"user": sess.User, "route": e.api.Route()})
	}
	fmt.Fprintf(e.out, "%s (%s)\n", sess.User.Email, sess.User.CanonicalRole())
	fmt.Fprintln(e.out, e.api.Route())
	return nil
}

func registerCommand() *command {
	var email, password, first, last string
	return &command{
		name:    "register",
		summary: "create a client account",
		flags: func(fs *pflag.FlagSet) {
			fs.StringVar(&email, "email", "", "account email")
			fs.StringVar(&password, "password", "", "password, at least 8 characters")
			fs.StringVar(&first, "first-name", "", "first name")
			fs.StringVar(&last, "last-name", "", "last name")
		},
		run: func(ctx context.Context, e *env, _ []string) error {
			user, err := e.api.Register(ctx, email, password, first, last)
			if err != nil {
				return err
			}
			if user != nil {
				fmt.Fprintf(e.out, "registered %s; check your email to verify\n", user.Email)
			}
			return nil
		},
	}
}

func ticketsCommand() *command {
	var query client.TicketQuery
	return &command{
		name:    "tickets",
		summary: "list tickets on your dashboard",
		flags: func(fs *pflag.FlagSet) {
			fs.StringSliceVar(&query.Statuses, "status", nil, "filter by status (comma separated)")
			fs.StringSliceVar(&query.Impacts, "impact", nil, "filter by impact (comma separated)")
			fs.StringVar(&query.Category, "category", "", "filter by category")
			fs.StringVar(&query.Search, "search", "", "search title and description")
			fs.IntVar(&query.Page, "page", 0, "page number")
			fs.IntVar(&query.PageSize, "page-size", 0, "page size")
		},
		run: func(ctx context.Context, e *env, _ []string) error {
			tickets, err := e.api.ListTickets(ctx, query)
			if err != nil {
				return err
			}
			return e.printTickets(tickets)
		},
	}
}

func createCommand() *command {
	var in client.NewTicket
	var attachments []string
	return &command{
		name:    "create",
		summary: "open a ticket",
		flags: func(fs *pflag.FlagSet) {
			fs.StringVar(&in.Title, "title", "", "short summary")
			fs.StringVar(&in.Description, "description", "", "what happened")
			fs.StringVar(&in.Category, "category", "", "ticket category")
			fs.StringVar(&in.Impact, "impact", "medium", "low, medium, high or critical")
			fs.StringArrayVar(&attachments, "attach", nil, "attachment as filename=url (repeatable)")
		},
		run: func(ctx context.Context, e *env, _ []string) error {
			for _, raw := range attachments {
				name, url, ok := strings.Cut(raw, "=")
				if !ok {
					return fmt.Errorf("attachment %q must be filename=url", raw)
				}
				in.Attachments = append(in.Attachments, client.Attachment{Filename: name, URL: url})
			}
			ticket, err := e.api.CreateTicket(ctx, in)
			if err != nil {
				return err
			}
			return e.printTickets([]client.Ticket{*ticket})
		},
	}
}

func runStatus(ctx context.Context, e *env, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: status <ticket-id> <status>")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid ticket id %q", args[0])
	}
	ticket, err := e.api.ChangeStatus(ctx, id, args[1])
	if errors.Is(err, client.ErrResolutionRequired) {
		return fmt.Errorf("%w: run `helpdeskctl resolve %d --details ...`", err, id)
	}
	if err != nil {
		return err
	}
	return e.printTickets([]client.Ticket{*ticket})
}

func resolveCommand() *command {
	var details string
	return &command{
		name:    "resolve",
		summary: "resolve a ticket with resolution details (staff)",
		flags: func(fs *pflag.FlagSet) {
			fs.StringVar(&details, "details", "", "what was done to resolve the ticket")
		},
		run: func(ctx context.Context, e *env, args []string) error {
			id, err := ticketArg(args, 1, "resolve <ticket-id> --details <text>")
			if err != nil {
				return err
			}
			ticket, err := e.api.Resolve(ctx, id, details)
			if err != nil {
				return err
			}
			return e.printTickets([]client.Ticket{*ticket})
		},
	}
}

func usersCommand() *command {
	var role string
	return &command{
		name:    "users",
		summary: "list accounts (admin)",
		flags: func(fs *pflag.FlagSet) {
			fs.StringVar(&role, "role", "", "only this role")
		},
		run: func(ctx context.Context, e *env, _ []string) error {
			users, err := e.api.ListUsers(ctx, role)
			if err != nil {
				return err
			}
			return e.printUsers(users)
		},
	}
}

func userAddCommand() *command {
	var in client.NewUser
	var role string
	return &command{
		name:    "useradd",
		summary: "create an account (admin)",
		flags: func(fs *pflag.FlagSet) {
			fs.StringVar(&in.Email, "email", "", "account email")
			fs.StringVar(&in.Password, "password", "", "initial password")
			fs.StringVar(&in.FirstName, "first-name", "", "first name")
			fs.StringVar(&in.LastName, "last-name", "", "last name")
			fs.StringVar(&role, "role", "client", "role name, synonym or numeric code")
			fs.StringVar(&in.Department, "department", "", "department")
			fs.StringVar(&in.Position, "position", "", "position")
		},
		run: func(ctx context.Context, e *env, _ []string) error {
			in.Role = role
			if code, err := strconv.Atoi(role); err == nil {
				in.Role = code
			}
			user, err := e.api.CreateUser(ctx, in)
			if err != nil {
				return err
			}
			return e.printUsers([]client.User{*user})
		},
	}
}

func reportCommand() *command {
	var output string
	var query client.TicketQuery
	return &command{
		name:    "report",
		summary: "download the XLSX ticket report (admin)",
		flags: func(fs *pflag.FlagSet) {
			fs.StringVarP(&output, "output", "o", "tickets.xlsx", "destination file")
			fs.StringSliceVar(&query.Statuses, "status", nil, "filter by status (comma separated)")
		},
		run: func(ctx context.Context, e *env, _ []string) error {
			report, err := e.api.TicketReport(ctx, query)
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, report, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(e.out, "wrote %s (%d bytes)\n", output, len(report))
			return nil
		},
	}
}

func ticketArg(args []string, want int, usage string) (int64, error) {
	if len(args) != want {
		return 0, fmt.Errorf("usage: %s", usage)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid ticket id %q", args[0])
	}
	return id, nil
}

func (e *env) printJSON(v any) error {
	enc := json.NewEncoder(e.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (e *env) printTickets(tickets []client.Ticket) error {
	if e.json {
		return e.printJSON(tickets)
	}
	w := tabwriter.NewWriter(e.out, 2, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tIMPACT\tCATEGORY\tAGENT\tTITLE")
	for _, t := range tickets {
		agent := "-"
		if t.AgentID != nil {
			agent = strconv.FormatInt(*t.AgentID, 10)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", t.ID, t.Status, t.Impact, t.Category, agent, t.Title)
	}
	return w.Flush()
}

func (e *env) printUsers(users []client.User) error {
	if e.json {
		return e.printJSON(users)
	}
	w := tabwriter.NewWriter(e.out, 2, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tEMAIL\tROLE\tSTATUS")
	for _, u := range users {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", u.ID, u.Email, u.Role, u.Status)
	}
	return w.Flush()
}
