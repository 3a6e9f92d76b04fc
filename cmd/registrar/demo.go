package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Breadlyy/honestSign/dispatch"
	"github.com/Breadlyy/honestSign/dispatch/domain"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Submit N copies of an empty document and wait for them to settle",
	RunE:  runDemo,
}

func init() {
	f := demoCmd.Flags()
	f.Int("count", 5, "number of documents to submit")
	f.String("signature", "dummy_signature", "signature sent with every document")
	f.Duration("wait", 30*time.Second, "how long to wait for every submission to settle")
	f.Duration("poll", 100*time.Millisecond, "status poll interval")
}

func runDemo(cmd *cobra.Command, _ []string) error {
	count, _ := cmd.Flags().GetInt("count")
	signature, _ := cmd.Flags().GetString("signature")
	wait, _ := cmd.Flags().GetDuration("wait")
	poll, _ := cmd.Flags().GetDuration("poll")
	if count <= 0 {
		return fmt.Errorf("--count must be > 0")
	}

	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ids := make([]domain.SubmissionID, 0, count)
	for range count {
		ids = append(ids, a.dispatcher.Submit(domain.Document{}, signature))
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), wait)
	defer cancel()
	settled := waitSettled(ctx, a.dispatcher, ids, poll)

	dropped := a.dispatcher.Shutdown()

	out := cmd.OutOrStdout()
	states := map[domain.State]int{}
	for _, id := range ids {
		st, ok := a.dispatcher.Status(context.Background(), id)
		if !ok {
			states["unknown"]++
			continue
		}
		states[st.State]++
		fmt.Fprintf(out, "%s\t%s\tattempts=%d\thttp=%d\tcid=%s\n", st.ID, st.State, st.Attempts, st.HTTPStatus, st.PayloadCID)
	}
	fmt.Fprintf(out, "settled=%v delivered=%d failed=%d abandoned=%d dropped=%d\n",
		settled, states[domain.StateDelivered], states[domain.StateFailed], states[domain.StateAbandoned], dropped)
	return nil
}

// waitSettled espera até todas as submissões chegarem a um estado terminal.
func waitSettled(ctx context.Context, d *dispatch.Dispatcher, ids []domain.SubmissionID, poll time.Duration) bool {
	t := time.NewTicker(poll)
	defer t.Stop()
	for {
		done := true
		for _, id := range ids {
			st, ok := d.Status(ctx, id)
			if !ok || !st.State.Terminal() {
				done = false
				break
			}
		}
		if done {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-t.C:
		}
	}
}
