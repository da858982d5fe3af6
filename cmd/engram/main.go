// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/engram"
	"github.com/poiesic/engram/ai"
	"github.com/poiesic/engram/core"
	"github.com/poiesic/engram/ingest"
	"github.com/poiesic/engram/search"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// newApp wires the command tree. Kept separate from main so tests can
// inspect the flag setup.
func newApp() *cli.App {
	return &cli.App{
		Name:  "engram",
		Usage: "Index study content and answer questions about it",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to the database directory",
				Value:   "./engram_db",
			},
			&cli.BoolFlag{
				Name:  "memory",
				Usage: "Keep the store in memory instead of on disk",
			},
			&cli.StringFlag{
				Name:  "host",
				Usage: "OpenAI-compatible service host URL",
			},
			&cli.StringFlag{
				Name:    "api-key",
				Usage:   "API key for the model service",
				EnvVars: []string{"ENGRAM_API_KEY"},
			},
			&cli.StringFlag{
				Name:  "embedding-model",
				Usage: "Embedding model name",
			},
			&cli.StringFlag{
				Name:  "chat-model",
				Usage: "Chat model name",
			},
			&cli.StringFlag{
				Name:    "owner",
				Aliases: []string{"o"},
				Usage:   "Owner id scoping every read and write",
				Value:   "local",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "index",
				Usage:     "Index a piece of study content",
				ArgsUsage: "<content>",
				Action:    indexCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "id",
						Usage: "Record id (generated when omitted; reusing an id replaces the record)",
					},
					&cli.StringFlag{
						Name:  "kind",
						Usage: "Content kind: task, note, course_material, study_session",
						Value: "note",
					},
					&cli.StringFlag{
						Name:  "title",
						Usage: "Display title",
					},
					&cli.StringFlag{
						Name:  "status",
						Usage: "Task status: todo, in_progress, completed",
					},
					&cli.StringFlag{
						Name:  "priority",
						Usage: "Task priority: high, low",
					},
					&cli.StringFlag{
						Name:  "course",
						Usage: "Course id the content belongs to",
					},
					&cli.StringFlag{
						Name:  "due",
						Usage: "Due date, e.g. 2026-06-01",
					},
				},
			},
			{
				Name:      "ask",
				Usage:     "Ask a question about indexed content",
				ArgsUsage: "<question>",
				Action:    askCommand,
			},
			{
				Name:      "search",
				Usage:     "Search indexed content",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "hybrid",
						Usage: "Blend keyword matching into the semantic ranking",
					},
					&cli.StringSliceFlag{
						Name:  "kind",
						Usage: "Restrict results to a kind (repeatable)",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results",
						Value: search.DefaultTopK,
					},
					&cli.Float64Flag{
						Name:  "min-similarity",
						Usage: "Cosine similarity floor",
						Value: float64(search.DefaultMinSimilarity),
					},
				},
			},
			{
				Name:      "similar",
				Usage:     "Find content similar to an indexed record",
				ArgsUsage: "<id>",
				Action:    similarCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results",
						Value: search.DefaultTopK,
					},
				},
			},
			{
				Name:   "stats",
				Usage:  "Show what the store holds",
				Action: statsCommand,
			},
			{
				Name:   "clear",
				Usage:  "Delete every indexed record",
				Action: clearCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "yes",
						Usage: "Skip the confirmation prompt",
					},
				},
			},
			{
				Name:   "reindex",
				Usage:  "Re-embed every stored record, e.g. after switching embedding models",
				Action: reindexCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of records to re-embed in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum embedding attempts per batch",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay between embedding retries",
						Value: time.Second,
					},
				},
			},
		},
	}
}

// indexCommand embeds and stores one piece of content from the command line.
func indexCommand(c *cli.Context) error {
	content := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if content == "" {
		return fmt.Errorf("nothing to index: pass the content as an argument")
	}

	kind, err := core.ParseKind(c.String("kind"))
	if err != nil {
		return fmt.Errorf("parsing kind %q: %w", c.String("kind"), err)
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	id := c.String("id")
	if id == "" {
		id = fmt.Sprintf("%s-%d", kind, time.Now().UnixMilli())
	}

	metadata := map[string]string{core.MetaOwnerID: c.String("owner")}
	if v := c.String("title"); v != "" {
		metadata[core.MetaTitle] = v
	}
	if v := c.String("status"); v != "" {
		metadata[core.MetaStatus] = v
	}
	if v := c.String("priority"); v != "" {
		metadata[core.MetaPriority] = v
	}
	if v := c.String("course"); v != "" {
		metadata[core.MetaCourseID] = v
	}
	if v := c.String("due"); v != "" {
		metadata[core.MetaDueDate] = v
	}

	ctx := context.Background()
	if err := engine.IndexContent(ctx, id, content, kind, metadata); err != nil {
		return fmt.Errorf("indexing %q: %w", id, err)
	}

	fmt.Fprintf(os.Stderr, "Indexed %s (%s)\n", id, kind)
	return nil
}

// askCommand answers a question from the indexed content and prints the
// sources it drew on.
func askCommand(c *cli.Context) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return fmt.Errorf("nothing to ask: pass the question as an argument")
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx := context.Background()
	response, err := engine.AnswerWithContext(ctx, question, c.String("owner"), nil)
	if err != nil {
		return fmt.Errorf("answering: %w", err)
	}

	fmt.Println(response.Answer)
	if len(response.Sources) > 0 {
		fmt.Printf("\nSources (%d%% confidence):\n", response.Confidence)
		for _, source := range response.Sources {
			fmt.Printf("  [%s] %s (%.0f%%)\n",
				strings.ToUpper(string(source.Record.Kind)),
				source.Record.Title(),
				float64(source.Similarity)*100)
		}
	}
	return nil
}

// searchCommand runs a semantic or hybrid search and prints the hits.
func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("nothing to search for: pass the query as an argument")
	}

	opts := &search.Options{
		TopK:          c.Int("limit"),
		MinSimilarity: float32(c.Float64("min-similarity")),
	}
	for _, raw := range c.StringSlice("kind") {
		kind, err := core.ParseKind(raw)
		if err != nil {
			return fmt.Errorf("parsing kind %q: %w", raw, err)
		}
		opts.Filter.Kinds = append(opts.Filter.Kinds, kind)
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx := context.Background()
	var results []core.SearchResult
	if c.Bool("hybrid") {
		results, err = engine.HybridSearch(ctx, query, c.String("owner"), opts)
	} else {
		results, err = engine.SemanticSearch(ctx, query, c.String("owner"), opts)
	}
	if err != nil {
		return fmt.Errorf("searching: %w", err)
	}

	printResults(results)
	return nil
}

// similarCommand lists records similar to an already indexed one.
func similarCommand(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return fmt.Errorf("missing record id")
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx := context.Background()
	results, err := engine.SimilarContent(ctx, id, c.String("owner"), c.Int("limit"))
	if err != nil {
		return fmt.Errorf("finding similar content: %w", err)
	}

	printResults(results)
	return nil
}

// statsCommand prints record counts and the last indexing time.
func statsCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx := context.Background()
	stats, err := engine.StoreStats(ctx)
	if err != nil {
		return fmt.Errorf("reading stats: %w", err)
	}

	fmt.Printf("Records: %d\n", stats.Count)
	for _, kind := range core.Kinds() {
		if n := stats.ByKind[kind]; n > 0 {
			fmt.Printf("  %s: %d\n", kind, n)
		}
	}
	if !stats.LastIndexedAt.IsZero() {
		fmt.Printf("Last indexed: %s\n", stats.LastIndexedAt.Format(time.RFC3339))
	}
	return nil
}

// clearCommand wipes the store, prompting first unless --yes was given.
func clearCommand(c *cli.Context) error {
	if !c.Bool("yes") {
		fmt.Fprint(os.Stderr, "This deletes every indexed record. Continue? [y/N] ")
		line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if !confirmed(line) {
			fmt.Fprintln(os.Stderr, "Aborted.")
			return nil
		}
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx := context.Background()
	if err := engine.ClearStore(ctx); err != nil {
		return fmt.Errorf("clearing store: %w", err)
	}

	fmt.Fprintln(os.Stderr, "Store cleared.")
	return nil
}

// reindexCommand re-embeds every stored record with the configured model.
func reindexCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	config := ingest.DefaultReindexConfig()
	if v := c.Int("batch-size"); v > 0 {
		config.BatchSize = v
	}
	if v := c.Int("max-retries"); v > 0 {
		config.MaxAttempts = v
	}
	if v := c.Duration("retry-delay"); v > 0 {
		config.RetryDelay = v
	}

	aiConfig := resolveAIConfig(c)
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", aiConfig.EmbeddingHost)
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", aiConfig.EmbeddingModel)
	fmt.Fprintln(os.Stderr)

	ctx := context.Background()
	progress := func(done, total int) {
		fmt.Fprintf(os.Stderr, "\rRe-embedded %d/%d records", done, total)
	}
	if err := engine.Reindex(ctx, config, progress); err != nil {
		fmt.Fprintln(os.Stderr)
		return fmt.Errorf("reindexing: %w", err)
	}

	fmt.Fprintln(os.Stderr, "\nDone.")
	return nil
}

// openEngine builds an Engine from the global flags and reports where the
// data lives.
func openEngine(c *cli.Context) (*engram.Engine, error) {
	opts := []engram.EngineOption{engram.WithAIConfig(resolveAIConfig(c))}
	if c.Bool("memory") {
		opts = append(opts, engram.WithInMemory())
	}

	dbPath := c.String("db")
	engine, err := engram.NewEngine(dbPath, opts...)
	if err != nil {
		return nil, fmt.Errorf("opening engine at %q: %w", dbPath, err)
	}

	if c.Bool("memory") {
		fmt.Fprintln(os.Stderr, "Database: in-memory")
	} else {
		fmt.Fprintf(os.Stderr, "Database: %s\n", dbPath)
	}
	return engine, nil
}

// resolveAIConfig layers the global model flags over the defaults.
func resolveAIConfig(c *cli.Context) *ai.Config {
	var opts []ai.ConfigOption
	if v := c.String("host"); v != "" {
		opts = append(opts, ai.WithHost(v))
	}
	if v := c.String("api-key"); v != "" {
		opts = append(opts, ai.WithAPIKey(v))
	}
	if v := c.String("embedding-model"); v != "" {
		opts = append(opts, ai.WithEmbeddingModel(v))
	}
	if v := c.String("chat-model"); v != "" {
		opts = append(opts, ai.WithChatModel(v))
	}
	return ai.NewConfig(opts...)
}

// printResults writes search hits to stdout, one numbered line per record.
func printResults(results []core.SearchResult) {
	fmt.Printf("Found %d hits\n", len(results))
	for i, hit := range results {
		fmt.Printf("%d: [%s] '%s' (%s) [%0.3f]\n",
			i+1, hit.Record.Kind, hit.Record.Title(), hit.Record.Id, hit.Relevance)
	}
}

// confirmed reports whether a prompt reply means yes.
func confirmed(line string) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// setupLogger configures the default logger before any command runs.
// --verbose switches from info to debug.
func setupLogger(c *cli.Context) error {
	level := slog.LevelInfo
	if c.Bool("verbose") {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))

	return nil
}
