package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Lavan1999/agentic-ai/internal/cdm"
	"github.com/Lavan1999/agentic-ai/internal/store"
	"github.com/Lavan1999/agentic-ai/internal/util"
)

func newRunCmd(configPath *string) *cobra.Command {
	var (
		requestPath string
		outPath     string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Adjudicate the risks of one declaration",
		Long:  "Reads a request {declaration_id, risk_profiles} from a file (or - for stdin), prints the decision for every risk as JSON and records the run in the history store.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			defer app.Close()

			req, err := readRequest(requestPath, cmd.InOrStdin())
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			orch, err := app.orchestrator(ctx)
			if err != nil {
				return err
			}
			db, err := app.history()
			if err != nil {
				return err
			}

			timer := util.StartTimer()
			resp := orch.Run(ctx, req)

			if db != nil {
				run := store.NewRun(resp, timer.Started(), timer.ElapsedMs())
				if err := db.SaveRun(run); err != nil {
					logrus.WithError(err).Warn("record run history")
				} else {
					logrus.WithField("run_id", run.ID).Info("run recorded")
				}
			}

			return writeResponse(resp, outPath, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&requestPath, "request", "r", "-", "request JSON file, - for stdin")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "also write the response JSON to this file")
	return cmd
}

func readRequest(path string, stdin io.Reader) (cdm.Request, error) {
	var (
		raw []byte
		err error
	)
	if path == "" || path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		// #nosec G304 -- path is operator-provided request file.
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return cdm.Request{}, fmt.Errorf("read request: %w", err)
	}

	var req cdm.Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return cdm.Request{}, fmt.Errorf("decode request: %w", err)
	}
	req.DeclarationID = strings.TrimSpace(req.DeclarationID)
	if req.DeclarationID == "" {
		return cdm.Request{}, errors.New("request declaration_id is required")
	}
	return req, nil
}

func writeResponse(resp cdm.Response, outPath string, stdout io.Writer) error {
	payload, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	payload = append(payload, '\n')
	if _, err := stdout.Write(payload); err != nil {
		return err
	}
	if outPath != "" {
		if err := os.WriteFile(outPath, payload, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", outPath, err)
		}
	}
	return nil
}
