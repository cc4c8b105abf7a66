package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/joho/godotenv"

	"github.com/egobogo/trellosync/internal/auth"
	"github.com/egobogo/trellosync/internal/board"
	"github.com/egobogo/trellosync/internal/config"
	"github.com/egobogo/trellosync/internal/config/filesys"
	"github.com/egobogo/trellosync/internal/kvstore/file"
	"github.com/egobogo/trellosync/internal/logging"
)

const usage = `usage: trellosync [-config file] <command> [args]

commands:
  login -token T            store a Trello token and fetch the profile
  logout                    forget the stored token
  me                        show the authenticated member
  boards                    list open boards
  lists BOARD_ID            list the open lists of a board
  cards LIST_ID             list the open cards of a list
  add-card -list ID -name N create a card
  move-card CARD_ID LIST_ID move a card to another list
  comment CARD_ID TEXT      comment on a card
  watch                     follow login and logout from other processes
`

func main() {
	// Load environment variables from .env file, if there is one.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("Error loading .env file: %v", err)
	}

	configFlag := flag.String("config", "", "YAML or TOML config file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := loadConfig(*configFlag)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("Invalid log configuration: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("startup failed")
	}
	err = run(ctx, a, os.Stdout, flag.Arg(0), flag.Args()[1:])
	a.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		prov, err := filesys.NewFilesysConfigProvider(path)
		if err != nil {
			return nil, err
		}
		config.SetProvider(prov)
		if err := config.Load(path); err != nil {
			return nil, err
		}
		cfg = config.GetLoadedConfig()
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func run(ctx context.Context, a *app, out io.Writer, cmd string, args []string) error {
	switch cmd {
	case "login":
		return login(ctx, a, out, args)
	case "logout":
		if err := a.tokens.ClearAuth(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "Logged out.")
		return nil
	case "me":
		if err := requireSession(a); err != nil {
			return err
		}
		me, err := a.queries.Me(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s (@%s) %s\n", me.FullName, me.Username, me.ID)
		return nil
	case "boards":
		if err := requireSession(a); err != nil {
			return err
		}
		boards, err := a.queries.Boards(ctx)
		if err != nil {
			return err
		}
		return table(out, []string{"ID", "NAME", "URL"}, boards, func(b board.Board) []string {
			return []string{b.ID, b.Name, b.ShortURL}
		})
	case "lists":
		id, err := oneArg(cmd, args)
		if err != nil {
			return err
		}
		lists, err := a.queries.Lists(ctx, id)
		if err != nil {
			return err
		}
		return table(out, []string{"ID", "NAME"}, lists, func(l board.List) []string {
			return []string{l.ID, l.Name}
		})
	case "cards":
		id, err := oneArg(cmd, args)
		if err != nil {
			return err
		}
		cards, err := a.queries.Cards(ctx, id)
		if err != nil {
			return err
		}
		return table(out, []string{"ID", "NAME", "MEMBERS"}, cards, func(c board.Card) []string {
			return []string{c.ID, c.Name, strings.Join(c.IDMembers, ",")}
		})
	case "add-card":
		return addCard(ctx, a, out, args)
	case "move-card":
		if len(args) != 2 {
			return fmt.Errorf("move-card needs CARD_ID and LIST_ID")
		}
		card, err := a.queries.MoveCard(ctx, args[0], board.MoveCardParams{ListID: args[1]})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Moved %s to list %s.\n", card.ID, card.IDList)
		return nil
	case "comment":
		if len(args) < 2 {
			return fmt.Errorf("comment needs CARD_ID and TEXT")
		}
		c, err := a.queries.AddComment(ctx, args[0], strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Comment %s added.\n", c.ID)
		return nil
	case "watch":
		return watch(ctx, a, out)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func login(ctx context.Context, a *app, out io.Writer, args []string) error {
	flags := flag.NewFlagSet("login", flag.ContinueOnError)
	token := flags.String("token", os.Getenv("TRELLO_TOKEN"), "Trello token (defaults to $TRELLO_TOKEN)")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if err := a.tokens.SetAuth(ctx, *token, nil); err != nil {
		return err
	}
	me, err := a.queries.Me(ctx)
	if err != nil {
		// A rejected token has already been cleared by the client.
		return fmt.Errorf("token check failed: %w", err)
	}
	if err := a.tokens.SetUser(ctx, &me); err != nil {
		return err
	}
	fmt.Fprintf(out, "Logged in as %s (@%s).\n", me.FullName, me.Username)
	return nil
}

func addCard(ctx context.Context, a *app, out io.Writer, args []string) error {
	flags := flag.NewFlagSet("add-card", flag.ContinueOnError)
	listID := flags.String("list", "", "list ID")
	name := flags.String("name", "", "card name")
	desc := flags.String("desc", "", "card description")
	if err := flags.Parse(args); err != nil {
		return err
	}
	card, err := a.queries.CreateCard(ctx, board.CreateCardParams{ListID: *listID, Name: *name, Desc: *desc})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Created card %s.\n", card.ID)
	return nil
}

// watch reloads the session whenever another process rewrites the session
// file, and reports each transition until interrupted.
func watch(ctx context.Context, a *app, out io.Writer) error {
	fstore, ok := a.store.(*file.FileStore)
	if !ok {
		return fmt.Errorf("watch needs the file storage driver")
	}
	unsubscribe := a.tokens.Subscribe(func(s auth.Session) {
		if s.IsAuthenticated {
			fmt.Fprintln(out, "Session: logged in.")
		} else {
			fmt.Fprintln(out, "Session: logged out.")
		}
	})
	defer unsubscribe()

	fmt.Fprintf(out, "Watching %s.\n", fstore.Path())
	return fstore.Watch(ctx, func() {
		if err := a.tokens.Initialize(ctx); err != nil {
			a.log.Warn().Err(err).Msg("failed to reload session")
		}
	})
}

func requireSession(a *app) error {
	if !a.tokens.IsAuthenticated() {
		return fmt.Errorf("not logged in; run trellosync login")
	}
	return nil
}

func oneArg(cmd string, args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%s needs exactly one ID", cmd)
	}
	return args[0], nil
}

func table[T any](out io.Writer, header []string, rows []T, cols func(T) []string) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(header, "\t"))
	for _, r := range rows {
		fmt.Fprintln(w, strings.Join(cols(r), "\t"))
	}
	return w.Flush()
}
