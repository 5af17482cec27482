// Command tripgraph plans a trip interactively: it gathers a travel
// request, runs the planning workflow to the first review pause, and
// loops on reviewer decisions until the plan is approved or the
// iteration limit forces completion.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dshills/tripgraph/deliver"
	"github.com/dshills/tripgraph/evaluate"
	"github.com/dshills/tripgraph/flow/emit"
	"github.com/dshills/tripgraph/flow/store"
	"github.com/dshills/tripgraph/model"
	"github.com/dshills/tripgraph/model/anthropic"
	"github.com/dshills/tripgraph/model/google"
	"github.com/dshills/tripgraph/model/openai"
	"github.com/dshills/tripgraph/planner"
	"github.com/dshills/tripgraph/travel"
)

type options struct {
	provider string
	offline  bool
	req      planner.TripRequest

	dbPath   string
	mysqlDSN string
	jsonLog  bool
	quiet    bool

	exportDir    string
	exportFormat string
	reportPath   string
	emailTo      string
}

func main() {
	var (
		provider     = flag.String("provider", "", "chat model provider: openai, anthropic, google, offline (default: first with an API key, else offline)")
		offline      = flag.Bool("offline", false, "force offline mode: deterministic model and demo tool data")
		request      = flag.String("request", "", "free-text travel request (omit for interactive entry)")
		origin       = flag.String("origin", "", "origin airport or city")
		destination  = flag.String("destination", "", "destination city")
		departDate   = flag.String("depart", "", "departure date (YYYY-MM-DD)")
		returnDate   = flag.String("return", "", "return date (YYYY-MM-DD)")
		checkIn      = flag.String("checkin", "", "hotel check-in date (YYYY-MM-DD)")
		checkOut     = flag.String("checkout", "", "hotel check-out date (YYYY-MM-DD)")
		interests    = flag.String("interests", "", "comma-separated interests")
		days         = flag.Int("days", 0, "trip duration in days")
		dbPath       = flag.String("db", "", "SQLite path for run persistence (default: in-memory)")
		mysqlDSN     = flag.String("mysql-dsn", "", "MySQL DSN for run persistence (takes precedence over -db)")
		jsonLog      = flag.Bool("json-log", false, "emit workflow events as JSON lines")
		quiet        = flag.Bool("quiet", false, "suppress workflow events")
		exportDir    = flag.String("export-dir", "", "write the approved itinerary to this directory")
		exportFormat = flag.String("export-format", "pdf", "itinerary export format: pdf or txt")
		reportPath   = flag.String("report", "", "write a JSON evaluation report to this path")
		emailTo      = flag.String("email-to", "", "comma-separated recipients for the approved itinerary (uses SMTP_* env)")
	)
	flag.Parse()

	opts := options{
		provider: *provider,
		offline:  *offline,
		req: planner.TripRequest{
			Request:      *request,
			Origin:       *origin,
			Destination:  *destination,
			DepartDate:   *departDate,
			ReturnDate:   *returnDate,
			CheckIn:      *checkIn,
			CheckOut:     *checkOut,
			Interests:    *interests,
			DurationDays: *days,
		},
		dbPath:       *dbPath,
		mysqlDSN:     *mysqlDSN,
		jsonLog:      *jsonLog,
		quiet:        *quiet,
		exportDir:    *exportDir,
		exportFormat: *exportFormat,
		reportPath:   *reportPath,
		emailTo:      *emailTo,
	}

	if err := run(opts); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	ctx := context.Background()
	in := bufio.NewScanner(os.Stdin)

	if strings.TrimSpace(opts.req.Request) == "" {
		wizard(in, &opts.req)
	}

	chat := buildChat(opts.provider, opts.offline)

	cfg := travel.Config{
		AmadeusClientID:     os.Getenv("AMADEUS_CLIENT_ID"),
		AmadeusClientSecret: os.Getenv("AMADEUS_CLIENT_SECRET"),
		OpenWeatherAPIKey:   os.Getenv("OPENWEATHER_API_KEY"),
		Offline:             opts.offline,
	}
	dispatcher := travel.NewDispatcher(travel.DefaultRegistry(cfg), nil)

	st, closeStore, err := buildStore(opts)
	if err != nil {
		return err
	}
	defer closeStore()

	var emitter emit.Emitter
	if !opts.quiet {
		emitter = emit.NewLogEmitter(os.Stderr, opts.jsonLog)
	}

	session, err := planner.NewSession(opts.req, planner.SessionConfig{
		Chat:       chat,
		Dispatcher: dispatcher,
		Store:      st,
		Emitter:    emitter,
	})
	if err != nil {
		return err
	}

	if _, err := session.RunToPause(ctx); err != nil {
		return err
	}

	state, abandoned, err := reviewLoop(ctx, session, in, os.Stdout)
	if err != nil {
		return err
	}
	if abandoned {
		fmt.Println("Session abandoned; the plan was not approved.")
		return nil
	}

	fmt.Println("\n=== Final Itinerary ===")
	fmt.Println(state.FinalPlan)

	return deliverOutputs(session.RunID(), state, opts)
}

func buildStore(opts options) (store.Store[planner.PlanState], func(), error) {
	switch {
	case opts.mysqlDSN != "":
		mysqlStore, err := store.NewMySQLStore[planner.PlanState](opts.mysqlDSN)
		if err != nil {
			return nil, nil, err
		}
		return mysqlStore, func() { _ = mysqlStore.Close() }, nil
	case opts.dbPath != "":
		sqlStore, err := store.NewSQLiteStore[planner.PlanState](opts.dbPath)
		if err != nil {
			return nil, nil, err
		}
		return sqlStore, func() { _ = sqlStore.Close() }, nil
	default:
		return store.NewMemStore[planner.PlanState](), func() {}, nil
	}
}

// reviewLoop drives review rounds until the plan is approved, the
// iteration limit forces completion, or the reviewer quits. The final
// round carries a warning but still takes a decision.
func reviewLoop(ctx context.Context, session *planner.Session, in *bufio.Scanner, out io.Writer) (planner.PlanState, bool, error) {
	state := session.State()
	for state.AwaitingReview {
		presentPlan(out, state)
		if state.IterationCount+1 >= planner.MaxIterations {
			fmt.Fprintln(out, "\nThis is the final round: the plan completes after this decision.")
		}

		var err error
		switch decision := promptDecision(in, out); decision {
		case "a":
			state, err = session.Approve(ctx)
		case "r":
			state, err = session.Regenerate(ctx)
		case "q":
			return state, true, nil
		default:
			state, err = session.RequestChanges(ctx, decision)
		}
		if err != nil {
			return state, false, err
		}
	}
	return state, false, nil
}

// wizard collects the request interactively when none was given.
func wizard(in *bufio.Scanner, req *planner.TripRequest) {
	fmt.Println("Trip Planner")
	fmt.Println("------------")
	req.Request = ask(in, "Describe your trip")
	req.Destination = ask(in, "Destination (optional)")
	req.Origin = ask(in, "Origin airport/city (optional)")
	req.DepartDate = ask(in, "Departure date YYYY-MM-DD (optional)")
	req.ReturnDate = ask(in, "Return date YYYY-MM-DD (optional)")
	req.CheckIn = ask(in, "Hotel check-in YYYY-MM-DD (optional)")
	req.CheckOut = ask(in, "Hotel check-out YYYY-MM-DD (optional)")
	req.Interests = ask(in, "Interests, comma separated (optional)")
	if d := ask(in, "Trip length in days (optional)"); d != "" {
		if n, err := strconv.Atoi(d); err == nil && n > 0 {
			req.DurationDays = n
		}
	}
}

func ask(in *bufio.Scanner, prompt string) string {
	fmt.Printf("%s: ", prompt)
	if !in.Scan() {
		return ""
	}
	return strings.TrimSpace(in.Text())
}

// buildChat picks a chat model. An explicit provider wins; otherwise the
// first provider with a key in the environment; otherwise offline.
func buildChat(provider string, offline bool) model.ChatModel {
	if offline {
		return model.NewOfflineModel()
	}

	openaiKey := os.Getenv("OPENAI_API_KEY")
	anthropicKey := os.Getenv("ANTHROPIC_API_KEY")
	googleKey := os.Getenv("GEMINI_API_KEY")

	switch provider {
	case "openai":
		if openaiKey != "" {
			return openai.NewChatModel(openaiKey, "")
		}
	case "anthropic":
		if anthropicKey != "" {
			return anthropic.NewChatModel(anthropicKey, "")
		}
	case "google":
		if googleKey != "" {
			return google.NewChatModel(googleKey, "")
		}
	case "offline":
		return model.NewOfflineModel()
	case "":
		switch {
		case openaiKey != "":
			return openai.NewChatModel(openaiKey, "")
		case anthropicKey != "":
			return anthropic.NewChatModel(anthropicKey, "")
		case googleKey != "":
			return google.NewChatModel(googleKey, "")
		}
	}

	fmt.Fprintln(os.Stderr, "no usable API key found; running with the offline model")
	return model.NewOfflineModel()
}

func presentPlan(out io.Writer, state planner.PlanState) {
	plan := state.FinalPlan
	if plan == "" {
		plan = state.DraftPlan
	}

	fmt.Fprintf(out, "\n=== Plan for Review (round %d of %d) ===\n\n", state.IterationCount+1, planner.MaxIterations)
	fmt.Fprintln(out, plan)
	fmt.Fprintln(out, "\n--- Gathered data ---")
	fmt.Fprintln(out, planner.FormatToolResults(state.ToolResults))
}

func promptDecision(in *bufio.Scanner, out io.Writer) string {
	fmt.Fprint(out, "\n[a]pprove, [r]egenerate, [q]uit, or type feedback: ")
	if !in.Scan() {
		return "q"
	}
	text := strings.TrimSpace(in.Text())
	if text == "" {
		return "a"
	}
	return text
}

func deliverOutputs(runID string, state planner.PlanState, opts options) error {
	if opts.exportDir != "" {
		var path string
		var err error
		switch opts.exportFormat {
		case "pdf", "":
			path, err = (&deliver.PDFExporter{Dir: opts.exportDir}).Export(state, "")
		case "txt":
			path, err = (&deliver.FileExporter{Dir: opts.exportDir}).Export(state, "")
		default:
			err = fmt.Errorf("unknown export format: %s", opts.exportFormat)
		}
		if err != nil {
			return err
		}
		fmt.Println("Itinerary written to", path)
	}

	if opts.reportPath != "" {
		report := evaluate.NewReport(runID, state)
		if err := report.WriteFile(opts.reportPath); err != nil {
			return err
		}
		fmt.Println(report.Summary())
	}

	if opts.emailTo != "" {
		port, _ := strconv.Atoi(os.Getenv("SMTP_PORT"))
		sender, err := deliver.NewEmailSender(deliver.EmailConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     port,
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     os.Getenv("SMTP_FROM"),
		})
		if err != nil {
			return err
		}
		recipients := strings.Split(opts.emailTo, ",")
		for i := range recipients {
			recipients[i] = strings.TrimSpace(recipients[i])
		}
		if err := sender.Send(state, recipients, ""); err != nil {
			return err
		}
		fmt.Println("Itinerary emailed to", opts.emailTo)
	}

	return nil
}
