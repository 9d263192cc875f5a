package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sercha-ask/internal/core/domain"
	"github.com/custodia-labs/sercha-ask/internal/core/ports/driving"
)

var (
	askMode      string
	askTopK      int
	askDocuments []string
	askNoStream  bool
	askJSON      bool
)

// isTerminal reports whether w is an interactive terminal. Answers are
// only streamed to terminals.
var isTerminal = func(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// terminalWidth returns the width of w, or 0 when it is not a terminal.
var terminalWidth = func(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about backend documents",
	Long: `Asks the backend to answer a question from the indexed documents.

On a terminal the answer is printed as it is generated; press Ctrl+C to
stop it. Otherwise, or with --no-stream, the complete answer is printed
once it is ready. Cited sources are listed after the answer.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askMode, "mode", "m", "", "retrieval mode (hybrid, keyword, semantic)")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of passages to retrieve (0 = configured default)")
	askCmd.Flags().StringSliceVar(&askDocuments, "doc", nil, "restrict to document ID (repeatable)")
	askCmd.Flags().BoolVar(&askNoStream, "no-stream", false, "wait for the complete answer")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if askTopK < 0 {
		return fmt.Errorf("%w: --top-k must not be negative", domain.ErrInvalidInput)
	}

	settings := currentSettings()
	params := settings.QuestionParameters(args[0])
	if err := applyQueryFlags(&params, askMode, askDocuments); err != nil {
		return err
	}
	if askTopK > 0 {
		params.TopK = askTopK
	}

	out := cmd.OutOrStdout()
	stream := settings.RAG.Stream && !askNoStream && !askJSON && isTerminal(out)

	printer := newAnswerPrinter(out)
	var onChange func()
	if stream {
		onChange = printer.notify
	}
	session, err := openSession(onChange)
	if err != nil {
		return err
	}
	defer session.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	sub := driving.Submission{Kind: domain.QueryKindRAG, Params: params, Stream: stream}
	if err := session.Submit(ctx, sub); err != nil {
		// A failed answer is still printed below.
		if st := session.View().AnswerState; st == nil || !st.Phase.IsTerminal() {
			return fmt.Errorf("ask failed: %w", err)
		}
	}

	state, err := awaitAnswer(ctx, session, printer)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		return outputAnswerJSON(out, params.Query, state)
	}
	return outputAnswerText(out, state, printer, stream)
}

// awaitAnswer prints answer changes until the answer is terminal. An
// interrupt cancels the answer.
func awaitAnswer(ctx context.Context, session driving.QuerySession, p *answerPrinter) (domain.AnswerState, error) {
	type awaited struct {
		state domain.AnswerState
		err   error
	}
	result := make(chan awaited, 1)
	go func() {
		st, err := session.AwaitAnswer(context.WithoutCancel(ctx))
		result <- awaited{state: st, err: err}
	}()

	interrupted := ctx.Done()
	for {
		select {
		case <-p.changes:
			p.update(session.View().AnswerState)
		case <-interrupted:
			interrupted = nil
			session.CancelAnswer()
		case r := <-result:
			return r.state, r.err
		}
	}
}

// answerPrinter writes a streamed answer incrementally.
type answerPrinter struct {
	w       io.Writer
	printed string
	changes chan struct{}
}

func newAnswerPrinter(w io.Writer) *answerPrinter {
	return &answerPrinter{w: w, changes: make(chan struct{}, 1)}
}

// notify signals a change without blocking the answer session.
func (p *answerPrinter) notify() {
	select {
	case p.changes <- struct{}{}:
	default:
	}
}

// update prints what was appended since the last update. A replaced
// answer is printed again in full on a new line.
func (p *answerPrinter) update(st *domain.AnswerState) {
	if st == nil || st.Answer == p.printed {
		return
	}
	if strings.HasPrefix(st.Answer, p.printed) {
		fmt.Fprint(p.w, st.Answer[len(p.printed):])
	} else {
		fmt.Fprint(p.w, "\n"+st.Answer)
	}
	p.printed = st.Answer
}

func outputAnswerText(w io.Writer, st domain.AnswerState, p *answerPrinter, streamed bool) error {
	if streamed {
		p.update(&st)
		if p.printed != "" {
			fmt.Fprintln(w)
		}
	} else if st.Answer != "" {
		fmt.Fprintln(w, wrap(st.Answer, terminalWidth(w)))
	}

	switch st.Phase {
	case domain.PhaseCompleted:
		printCitations(w, st.Citations)
		return nil
	case domain.PhaseCancelled:
		fmt.Fprintln(w, mutedStyle.Render("Answer cancelled."))
		return nil
	case domain.PhaseFailed:
		return fmt.Errorf("answer failed: %w", st.Err)
	default:
		return fmt.Errorf("%w: answer ended in phase %s", domain.ErrInvalidState, st.Phase)
	}
}

func printCitations(w io.Writer, citations []domain.Citation) {
	if len(citations) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Sources:")
	for i, c := range citations {
		label := c.Label()
		if c.Marker == "" {
			label = fmt.Sprintf("[%d] %s", i+1, label)
		}
		fmt.Fprintf(w, "  %s\n", label)
	}
}

type answerOutput struct {
	Question  string            `json:"question"`
	Phase     string            `json:"phase"`
	Answer    string            `json:"answer"`
	Citations []domain.Citation `json:"citations"`
	Error     string            `json:"error,omitempty"`
}

func outputAnswerJSON(w io.Writer, question string, st domain.AnswerState) error {
	out := answerOutput{
		Question:  question,
		Phase:     st.Phase.String(),
		Answer:    st.Answer,
		Citations: st.Citations,
	}
	if out.Citations == nil {
		out.Citations = []domain.Citation{}
	}
	if st.Err != nil {
		out.Error = st.Err.Error()
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	fmt.Fprintln(w, string(data))

	if st.Phase == domain.PhaseFailed {
		return fmt.Errorf("answer failed: %w", st.Err)
	}
	return nil
}
