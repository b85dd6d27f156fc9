package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgp-ops/askdgp/config"
	"github.com/dgp-ops/askdgp/internal/engine"
	"github.com/dgp-ops/askdgp/internal/retrieve"
	srv "github.com/dgp-ops/askdgp/internal/server"
	"github.com/dgp-ops/askdgp/internal/topics"
	"github.com/dgp-ops/askdgp/provider"
	"github.com/dgp-ops/askdgp/session"
)

// chatCMD runs the assistant as an interactive terminal session against the
// same engine the HTTP API uses.
func chatCMD() *cobra.Command {
	var cfgPath string
	var chat = &cobra.Command{
		Use:   "chat",
		Short: "Run an interactive terminal chat session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			return runChat(cmd.Context(), cfg)
		},
	}
	chat.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return chat
}

func runChat(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	in := bufio.NewScanner(os.Stdin)
	in.Buffer(make([]byte, 64*1024), 64*1024)

	// Credential gate comes before any retrieval logic.
	fmt.Print("Password: ")
	if !in.Scan() {
		return nil
	}
	if !cfg.Auth.Check(strings.TrimSpace(in.Text())) {
		return fmt.Errorf("password incorrect")
	}

	source, err := srv.BuildSource(cfg)
	if err != nil {
		return err
	}
	tbl, err := source.Load(ctx)
	if err != nil {
		return err
	}

	prov, err := provider.NewProvider(provider.Client(cfg.LLM.Type), cfg.LLM)
	if err != nil {
		return err
	}
	loc, err := time.LoadLocation(cfg.General.Timezone)
	if err != nil {
		return err
	}

	logger := log.New(os.Stderr, "[CHAT] ", log.LstdFlags)
	retriever := retrieve.New(retrieve.NewTokenSortScorer())
	retriever.BlockSize = cfg.Retrieval.BlockSize
	retriever.MaxCandidates = cfg.Retrieval.MaxCandidates
	eng := engine.New(prov, retriever, loc, logger)
	eng.ContextTurns = cfg.Retrieval.ContextTurns

	top := topics.Top(tbl, cfg.Topics.TopN)
	reps := topics.Dedupe(top, retrieve.NewTokenSortScorer(), cfg.Topics.Threshold)
	suggestions := topics.Questions(ctx, prov, reps, logger)

	sess := session.New("terminal")
	fmt.Println(session.Greeting)
	fmt.Println(`Commands: /topics, /ticket, /new, /quit`)

	for {
		fmt.Print("> ")
		if !in.Scan() {
			return in.Err()
		}
		line := strings.TrimSpace(in.Text())
		switch {
		case line == "":
			continue
		case line == "/quit":
			return nil
		case line == "/new":
			sess.Reset()
			fmt.Println(session.Greeting)
		case line == "/ticket":
			fmt.Println(eng.LogTicket(sess).String())
		case line == "/topics":
			for i, s := range suggestions {
				fmt.Printf("%2d) %s\n", i+1, s.Question)
			}
		default:
			fmt.Println("Processing your request...")
			resp := eng.Answer(ctx, sess, tbl, line)
			fmt.Println(resp.Message)
		}
	}
}
