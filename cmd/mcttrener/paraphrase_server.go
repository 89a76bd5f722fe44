package main

import (
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/toradrage/mct-trener/internal/paraphrase"
)

// #region paraphrase-server

func newParaphraseServerCmd(a *app) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "paraphrase-server",
		Short: "Serve the OpenAI paraphraser over gRPC for trainers running with MCT_PARAPHRASE=grpc",
		RunE: func(cmd *cobra.Command, args []string) error {
			o := a.cfg.Paraphrase.OpenAI
			if o.APIKey == "" {
				return errors.New("paraphrase-server needs OPENAI_API_KEY")
			}
			p := paraphrase.NewOpenAIParaphraser(o.APIKey,
				paraphrase.WithOpenAIModel(o.Model),
				paraphrase.WithOpenAIBaseURL(o.BaseURL),
			)

			lis, err := net.Listen("tcp", listen)
			if err != nil {
				return fmt.Errorf("listen %s: %w", listen, err)
			}
			srv := grpc.NewServer()
			paraphrase.RegisterParaphraseServer(srv, paraphrase.NewParaphraseService(p))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			go func() {
				<-ctx.Done()
				srv.GracefulStop()
			}()

			a.log.Info("paraphrase server listening",
				zap.String("addr", lis.Addr().String()),
				zap.String("model", o.Model),
			)
			if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return fmt.Errorf("serve: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "localhost:50061", "address to listen on")
	return cmd
}

// #endregion paraphrase-server
