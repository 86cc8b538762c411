// Command emvterm is a contact EMV terminal loop: it waits for a card,
// runs ATR validation, application selection, GET PROCESSING OPTIONS,
// application record reading, Offline Data Authentication and
// processing restriction checks, then prints a transaction summary.
// Grounded on ro/main.go's reader-polling shape, generalized from a
// proprietary NFC tag dump to the EMV contact flow.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/ebfe/scard"

	"github.com/barnettlynn/emvterm/ber"
	"github.com/barnettlynn/emvterm/capk"
	"github.com/barnettlynn/emvterm/cmd/emvterm/internal/config"
	"github.com/barnettlynn/emvterm/cryptoengine"
	"github.com/barnettlynn/emvterm/dol"
	"github.com/barnettlynn/emvterm/emvfield"
	"github.com/barnettlynn/emvterm/reader"
	"github.com/barnettlynn/emvterm/selection"
	"github.com/barnettlynn/emvterm/ttl"
	"github.com/barnettlynn/emvterm/txn"
)

func main() {
	verbose := flag.Bool("v", false, "enable debug logging")
	logFormat := flag.String("log-format", "text", "log format: text or json")
	configPath := flag.String("config", "emvterm.yaml", "path to terminal config file")
	readerOverride := flag.Int("reader", -1, "reader index override (-1 uses config)")
	enterCAPKOverride := flag.Bool("enter-capk-override", false, "prompt for one additional CAPK entry, masked, before starting")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if *logFormat == "json" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, opts)))
	} else {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, opts)))
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	readerIndex := *cfg.Reader.Index
	if *readerOverride >= 0 {
		readerIndex = *readerOverride
	}

	capkTable, err := config.LoadCAPKFixture(cfg.CAPKFixtureFile)
	if err != nil {
		log.Fatalf("capk fixture error: %v", err)
	}
	if *enterCAPKOverride {
		overrideKey, err := promptCAPKOverride()
		if err != nil {
			log.Fatalf("capk override entry failed: %v", err)
		}
		capkTable = capk.NewStaticTable(append(capkTable.All(), overrideKey))
	}
	aidAllowlist, err := config.LoadAIDAllowlist(cfg.AIDAllowlistFile)
	if err != nil {
		log.Fatalf("aid allowlist error: %v", err)
	}
	terminalTLVs, err := cfg.TerminalTLVs()
	if err != nil {
		log.Fatalf("terminal config error: %v", err)
	}

	pollCtx, err := scard.EstablishContext()
	if err != nil {
		log.Fatalf("EstablishContext failed: %v", err)
	}
	defer pollCtx.Release()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Printf("\nreceived %v, shutting down\n", sig)
		pollCtx.Release()
		os.Exit(0)
	}()

	readers, err := pollCtx.ListReaders()
	if err != nil || len(readers) == 0 {
		log.Fatalf("no readers found: %v", err)
	}
	if args := flag.Args(); len(args) > 0 {
		if idx, ok := readerIndexFromArg(readers, args[0]); ok {
			readerIndex = idx
		} else {
			log.Printf("reader argument %q not resolved, using configured index", args[0])
		}
	}
	if readerIndex < 0 || readerIndex >= len(readers) {
		log.Fatalf("reader index out of range (0..%d)", len(readers)-1)
	}
	readerName := readers[readerIndex]
	fmt.Printf("using reader [%d]: %s\n", readerIndex, readerName)

	states := []scard.ReaderState{{Reader: readerName, CurrentState: scard.StateUnaware}}
	cardPresent := false

	fmt.Println("waiting for card...")
	for {
		if err := pollCtx.GetStatusChange(states, time.Second); err != nil {
			if err == scard.ErrTimeout {
				continue
			}
			log.Printf("GetStatusChange error: %v", err)
			continue
		}

		rs := states[0]
		if (rs.EventState&scard.StatePresent) != 0 && !cardPresent {
			cardPresent = true
			runTransaction(pollCtx, readerIndex, readerName, terminalTLVs, capkTable, aidAllowlist)
			fmt.Println("waiting for next card...")
		} else if (rs.EventState&scard.StateEmpty) != 0 && cardPresent {
			cardPresent = false
		}
		states[0].CurrentState = rs.EventState
	}
}

// runTransaction connects to the presented card, reads its raw ATR, and
// drives it through the full EMV flow, printing a summary or an error at
// each stage. Any stage failure is reported and the function returns;
// the outer poll loop resumes waiting for the next card.
func runTransaction(pollCtx *scard.Context, readerIndex int, readerName string, terminalTLVs ber.TLVList, capkTable capk.Table, aidAllowlist []selection.TerminalAID) {
	card, err := pollCtx.Connect(readerName, scard.ShareShared, scard.ProtocolAny)
	if err != nil {
		log.Printf("connect failed: %v", err)
		return
	}
	status, err := card.Status()
	card.Disconnect(scard.LeaveCard)
	if err != nil {
		log.Printf("status failed: %v", err)
		return
	}

	atr, err := parseATR(status.Atr)
	if err != nil {
		log.Printf("atr parse failed: %v", err)
		return
	}

	pcsc, err := reader.Connect(readerIndex, ttl.ModeAPDU)
	if err != nil {
		log.Printf("reconnect for transaction failed: %v", err)
		return
	}
	defer pcsc.Close()

	ctx := txn.NewContext(pcsc, capkTable, cryptoengine.Std{}, ber.TLVList{}, ber.TLVList{})
	ctx.Terminal = terminalTLVs

	background := context.Background()

	if err := ctx.ValidateATR(atr); err != nil {
		log.Printf("ATR rejected: %v", err)
		return
	}

	if err := ctx.BuildCandidates(background, selection.PSEName, aidAllowlist); err != nil {
		log.Printf("application discovery failed: %v", err)
		return
	}
	if len(ctx.Candidates) == 0 {
		fmt.Println("no applications found")
		return
	}

	for {
		err := ctx.SelectApplication(background, 0)
		if err == nil {
			break
		}
		if outcomeIs(err, txn.OutcomeTryAgain) {
			continue
		}
		log.Printf("application selection failed: %v", err)
		return
	}

	pdol, _ := ctx.ICC.FindFirst(emvfield.TagPDOL)
	if err := ctx.PerformGPO(background, pdol.Value); err != nil {
		log.Printf("GPO failed: %v", err)
		return
	}

	if err := ctx.ReadApplicationData(background); err != nil {
		log.Printf("read application data failed: %v", err)
		return
	}

	if err := ctx.PerformODA(background); err != nil {
		log.Printf("ODA failed: %v", err)
		return
	}

	if err := ctx.CheckProcessingRestrictions(); err != nil {
		log.Printf("processing restrictions check failed: %v", err)
		return
	}

	if ctx.ODA.Method == txn.ODACDA {
		if err := finalizeCDA(background, ctx); err != nil {
			log.Printf("GENERATE AC (CDA) failed: %v", err)
		}
	}

	printSummary(ctx)
}

// finalizeCDA builds CDOL1 data from the context's sources, issues
// GENERATE AC requesting CDA, and hands the SDAD to ctx.FinalizeCDA for
// its deferred hash check, per spec.md §4.8's CDA posture.
func finalizeCDA(ctx context.Context, c *txn.Context) error {
	cdol1, ok := c.ICC.FindFirst(emvfield.TagCDOL1RelatedData)
	if !ok {
		return fmt.Errorf("CDOL1 missing")
	}
	entries, err := dol.Parse(cdol1.Value)
	if err != nil {
		return err
	}
	data := make([]byte, dol.RequiredLength(entries))
	sources := []dol.Source{&c.Params, &c.Terminal, &c.Config}
	if _, err := dol.Build(data, entries, sources, emvfield.IsFormatN); err != nil {
		return err
	}

	resp, sw, err := ttl.GenerateAC(ctx, c.Reader, ttl.ACTypeARQC, true, data)
	if err != nil {
		return err
	}
	if !ttl.IsSuccess(sw) {
		return fmt.Errorf("GENERATE AC status %04X", sw)
	}

	list, err := ber.ParseAll(resp)
	if err != nil {
		return err
	}
	sdad, ok := list.FindFirst(emvfield.TagSDAD)
	if !ok {
		return fmt.Errorf("SDAD missing from GENERATE AC response")
	}
	return c.FinalizeCDA(data, sdad.Value)
}

func outcomeIs(err error, want txn.Outcome) bool {
	oe, ok := err.(*txn.OutcomeError)
	return ok && oe.Outcome == want
}

func printSummary(c *txn.Context) {
	fmt.Println("--- transaction summary ---")
	if pan, ok := c.ICC.FindFirst(emvfield.TagPAN); ok {
		fmt.Printf("PAN: %s\n", emvfield.MaskPAN(pan.Value))
	}
	if c.SelectedApp != nil {
		fmt.Printf("application: %s\n", c.SelectedApp.Label)
	}
	fmt.Printf("ODA method: %s\n", c.ODA.Method)
	tvr := c.TVR()
	tsi := c.TSI()
	fmt.Printf("TVR: %X\n", tvr)
	fmt.Printf("TSI: %X\n", tsi)
}

// readerIndexFromArg resolves a reader-selection command-line argument
// that may be a numeric index or a substring of the reader's name,
// mirroring ro/main.go's own selection convention.
func readerIndexFromArg(readers []string, arg string) (int, bool) {
	if v, err := strconv.Atoi(arg); err == nil {
		if v >= 0 && v < len(readers) {
			return v, true
		}
		return 0, false
	}
	for i, r := range readers {
		if strings.Contains(r, arg) {
			return i, true
		}
	}
	return 0, false
}
