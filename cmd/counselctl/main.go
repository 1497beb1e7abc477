package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/matheus3301/counsel/internal/api"
	"github.com/matheus3301/counsel/internal/auth"
	"github.com/matheus3301/counsel/internal/chat"
	"github.com/matheus3301/counsel/internal/config"
	"github.com/matheus3301/counsel/internal/lock"
	"github.com/matheus3301/counsel/internal/profile"
	"github.com/matheus3301/counsel/internal/server"
	"github.com/matheus3301/counsel/internal/store"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "counselctl",
		Usage: "Administer counseld and talk to it from scripts",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "profile",
				Usage: "profile name (overrides config default)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "output in JSON format",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show whether counseld is running and healthy",
				Action: runStatus,
			},
			{
				Name:      "seed",
				Usage:     "Load users and hires from a TOML file (counseld must be stopped)",
				ArgsUsage: "<file>",
				Action:    runSeed,
			},
			{
				Name:      "login",
				Usage:     "Sign a token for a user and store it in the client config",
				ArgsUsage: "<user>",
				Action:    runLogin,
			},
			{
				Name:      "token",
				Usage:     "Print a signed token for a user",
				ArgsUsage: "<user>",
				Action:    runToken,
			},
			{
				Name:   "contacts",
				Usage:  "List the signed-in user's contacts",
				Action: runContacts,
			},
			{
				Name:      "history",
				Usage:     "Print the conversation with a contact",
				ArgsUsage: "<peer>",
				Action:    runHistory,
			},
			{
				Name:      "send",
				Usage:     "Send a message to a contact",
				ArgsUsage: "<peer> <text>",
				Action:    runSend,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type env struct {
	profile string
	cfg     *config.Config
	json    bool
}

func loadEnv(c *cli.Context) (*env, error) {
	name := profile.Resolve(c.String("profile"))
	if err := profile.ValidateName(name); err != nil {
		return nil, err
	}
	cfg, err := config.LoadOrDefault(profile.ConfigPath())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &env{profile: name, cfg: cfg, json: c.Bool("json")}, nil
}

// client returns the API client and credential of the signed-in user.
func (e *env) client() (*api.Client, chat.Credential, error) {
	if err := e.cfg.ValidateClient(); err != nil {
		return nil, chat.Credential{}, err
	}
	if e.cfg.Client.Token == "" {
		return nil, chat.Credential{}, errors.New("not signed in; run counselctl login <user>")
	}
	c := api.New(e.cfg.Client.BaseURL, e.cfg.Client.RequestTimeout.Duration, nil)
	return c, chat.Credential{Token: e.cfg.Client.Token, UserID: e.cfg.Client.UserID}, nil
}

func arg(c *cli.Context, i int, name string) (string, error) {
	v := strings.TrimSpace(c.Args().Get(i))
	if v == "" {
		return "", fmt.Errorf("missing <%s>; usage: %s %s", name, c.Command.Name, c.Command.ArgsUsage)
	}
	return v, nil
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runStatus(c *cli.Context) error {
	e, err := loadEnv(c)
	if err != nil {
		return err
	}

	type status struct {
		Profile string `json:"profile"`
		Running bool   `json:"running"`
		PID     int    `json:"pid,omitempty"`
		Listen  string `json:"listen,omitempty"`
		Since   string `json:"since,omitempty"`
		Healthy bool   `json:"healthy"`
		Error   string `json:"error,omitempty"`
	}
	st := status{Profile: e.profile}

	holder, err := lock.Inspect(profile.LockPath(e.profile))
	switch {
	case err == nil:
		st.Running = true
		st.PID = holder.PID
		st.Listen = holder.Listen
		st.Since = holder.Acquired.Format(time.RFC3339)
	case errors.Is(err, os.ErrNotExist):
	default:
		return err
	}

	if st.Running {
		ctx, cancel := context.WithTimeout(c.Context, 3*time.Second)
		defer cancel()
		client := api.New(e.cfg.Client.BaseURL, 0, nil)
		if err := client.Health(ctx); err != nil {
			st.Error = err.Error()
		} else {
			st.Healthy = true
		}
	}

	if e.json {
		return outputJSON(st)
	}
	fmt.Printf("Profile: %s\n", st.Profile)
	if !st.Running {
		fmt.Println("Server:  not running")
		return nil
	}
	fmt.Printf("Server:  running (pid %d, listening on %s, since %s)\n", st.PID, st.Listen, st.Since)
	if st.Healthy {
		fmt.Println("Health:  ok")
	} else {
		fmt.Printf("Health:  failing: %s\n", st.Error)
	}
	return nil
}

func runSeed(c *cli.Context) error {
	e, err := loadEnv(c)
	if err != nil {
		return err
	}
	path, err := arg(c, 0, "file")
	if err != nil {
		return err
	}
	seed, err := server.LoadSeed(path)
	if err != nil {
		return err
	}

	if err := profile.EnsureDir(e.profile); err != nil {
		return err
	}
	lk, err := lock.Acquire(profile.LockPath(e.profile), "")
	if err != nil {
		var held *lock.LockHeldError
		if errors.As(err, &held) {
			return fmt.Errorf("counseld is running (pid %d); stop it before seeding", held.Holder.PID)
		}
		return err
	}
	defer func() { _ = lk.Release() }()

	db, err := store.Open(profile.ServerDBPath(e.profile))
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	if _, err := db.Migrate(); err != nil {
		return err
	}
	if err := seed.Apply(db); err != nil {
		return err
	}

	fmt.Printf("Seeded %d users and %d hires into profile %s\n", len(seed.Users), len(seed.Hires), e.profile)
	return nil
}

// issue signs a token for userID with the role recorded in the server database.
func issue(e *env, userID string) (string, error) {
	if err := e.cfg.ValidateServer(); err != nil {
		return "", err
	}
	signer, err := auth.NewSigner(e.cfg.Server.JWTSecret, e.cfg.Server.TokenTTL.Duration)
	if err != nil {
		return "", err
	}

	db, err := store.Open(profile.ServerDBPath(e.profile))
	if err != nil {
		return "", err
	}
	defer func() { _ = db.Close() }()
	u, err := db.GetUser(userID)
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", fmt.Errorf("unknown user %q", userID)
	}
	return signer.Issue(u.ID, u.Role)
}

func runToken(c *cli.Context) error {
	e, err := loadEnv(c)
	if err != nil {
		return err
	}
	userID, err := arg(c, 0, "user")
	if err != nil {
		return err
	}
	token, err := issue(e, userID)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func runLogin(c *cli.Context) error {
	e, err := loadEnv(c)
	if err != nil {
		return err
	}
	userID, err := arg(c, 0, "user")
	if err != nil {
		return err
	}
	token, err := issue(e, userID)
	if err != nil {
		return err
	}

	e.cfg.Client.Token = token
	e.cfg.Client.UserID = userID
	if err := config.Save(profile.ConfigPath(), e.cfg); err != nil {
		return err
	}
	fmt.Printf("Signed in as %s\n", userID)
	return nil
}

func runContacts(c *cli.Context) error {
	e, err := loadEnv(c)
	if err != nil {
		return err
	}
	client, cred, err := e.client()
	if err != nil {
		return err
	}
	contacts, err := client.ListContacts(c.Context, cred)
	if err != nil {
		return err
	}
	// Presence only decorates the listing.
	presence := chat.NewPresence(nil)
	online, err := client.ListOnline(c.Context, cred)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: presence unavailable: %v\n", err)
	} else {
		presence.Replace(online)
	}

	if e.json {
		type row struct {
			chat.Contact
			Online bool `json:"online"`
		}
		rows := make([]row, 0, len(contacts))
		for _, ct := range contacts {
			rows = append(rows, row{Contact: ct, Online: presence.IsOnline(ct.ID)})
		}
		return outputJSON(rows)
	}
	for _, ct := range contacts {
		marker := " "
		if presence.IsOnline(ct.ID) {
			marker = "*"
		}
		fmt.Printf("%s %-20s @%-16s %s\n", marker, ct.Name, ct.Handle, ct.ID)
	}
	return nil
}

func runHistory(c *cli.Context) error {
	e, err := loadEnv(c)
	if err != nil {
		return err
	}
	peer, err := arg(c, 0, "peer")
	if err != nil {
		return err
	}
	client, cred, err := e.client()
	if err != nil {
		return err
	}
	convID, err := client.StartConversation(c.Context, cred, peer)
	if err != nil {
		return err
	}
	msgs, err := client.ListMessages(c.Context, cred, convID)
	if err != nil {
		return err
	}
	chat.SortByTimestamp(msgs)

	if e.json {
		return outputJSON(msgs)
	}
	for _, g := range chat.GroupByDay(msgs, time.Now()) {
		fmt.Printf("-- %s --\n", g.Label)
		for _, m := range g.Messages {
			sender := m.SenderID
			if sender == cred.UserID {
				sender = "You"
			}
			fmt.Printf("[%s] %s: %s\n", m.Timestamp.Local().Format("15:04"), sender, m.Text)
		}
	}
	return nil
}

func runSend(c *cli.Context) error {
	e, err := loadEnv(c)
	if err != nil {
		return err
	}
	peer, err := arg(c, 0, "peer")
	if err != nil {
		return err
	}
	text := strings.TrimSpace(strings.Join(c.Args().Tail(), " "))
	if text == "" {
		return errors.New("missing <text>; usage: send <peer> <text>")
	}
	client, cred, err := e.client()
	if err != nil {
		return err
	}
	convID, err := client.StartConversation(c.Context, cred, peer)
	if err != nil {
		return err
	}
	if err := client.SendMessage(c.Context, cred, convID, text); err != nil {
		return err
	}
	fmt.Println("Sent")
	return nil
}
