package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/engram"
	"github.com/poiesic/engram/core"
	"github.com/poiesic/engram/ingest"
)

// seed is one demo record. Zero-value metadata fields are left off the
// indexed item.
type seed struct {
	id       string
	kind     core.Kind
	title    string
	content  string
	status   string
	priority string
	course   string
	due      string
}

var seeds = []seed{
	{
		id:       "task-bio-lab",
		kind:     core.KindTask,
		title:    "Biology lab report",
		content:  "Write up the photosynthesis lab report with light absorption measurements and chlorophyll extraction results.",
		status:   core.StatusInProgress,
		priority: core.PriorityHigh,
		course:   "bio-101",
		due:      daysFromNow(2),
	},
	{
		id:       "task-chem-pset",
		kind:     core.KindTask,
		title:    "Chemistry problem set 6",
		content:  "Finish problem set 6 on acid-base equilibria, buffer solutions, and titration curves.",
		status:   core.StatusTodo,
		priority: core.PriorityHigh,
		course:   "chem-201",
		due:      daysFromNow(3),
	},
	{
		id:       "task-math-quiz",
		kind:     core.KindTask,
		title:    "Calculus quiz prep",
		content:  "Review integration by parts and partial fractions before Friday's quiz.",
		status:   core.StatusTodo,
		priority: core.PriorityLow,
		course:   "math-150",
		due:      daysFromNow(4),
	},
	{
		id:       "task-hist-essay",
		kind:     core.KindTask,
		title:    "History essay draft",
		content:  "Draft the essay on the causes of the French Revolution, focusing on the fiscal crisis and the Estates-General.",
		status:   core.StatusTodo,
		priority: core.PriorityHigh,
		course:   "hist-210",
		due:      daysFromNow(7),
	},
	{
		id:       "task-bio-reading",
		kind:     core.KindTask,
		title:    "Biology reading",
		content:  "Read chapter 8 on cellular respiration and glycolysis before Tuesday's lecture.",
		status:   core.StatusCompleted,
		priority: core.PriorityLow,
		course:   "bio-101",
	},
	{
		id:       "task-chem-flashcards",
		kind:     core.KindTask,
		title:    "Chemistry flashcards",
		content:  "Make flashcards for the functional groups and the common reaction mechanisms.",
		status:   core.StatusCompleted,
		priority: core.PriorityLow,
		course:   "chem-201",
	},
	{
		id:       "task-math-homework",
		kind:     core.KindTask,
		title:    "Calculus homework 9",
		content:  "Submit homework 9 covering improper integrals and convergence tests.",
		status:   core.StatusInProgress,
		priority: core.PriorityHigh,
		course:   "math-150",
		due:      daysFromNow(1),
	},
	{
		id:       "task-group-project",
		kind:     core.KindTask,
		title:    "Study group slides",
		content:  "Prepare slides for the ecology group presentation on nutrient cycles.",
		status:   core.StatusTodo,
		priority: core.PriorityLow,
		course:   "bio-101",
		due:      daysFromNow(10),
	},
	{
		id:      "note-photosynthesis",
		kind:    core.KindNote,
		title:   "Photosynthesis overview",
		content: "Photosynthesis converts light energy into chemical energy. The light reactions split water in the thylakoid membranes while the Calvin cycle fixes carbon dioxide into sugar.",
		course:  "bio-101",
	},
	{
		id:      "note-respiration",
		kind:    core.KindNote,
		title:   "Cellular respiration",
		content: "Cellular respiration breaks glucose down through glycolysis, the Krebs cycle, and the electron transport chain, yielding up to 38 ATP per glucose molecule.",
		course:  "bio-101",
	},
	{
		id:      "note-buffers",
		kind:    core.KindNote,
		title:   "Buffer solutions",
		content: "A buffer resists pH change because it pairs a weak acid with its conjugate base. The Henderson-Hasselbalch equation relates pH to the pKa and the concentration ratio.",
		course:  "chem-201",
	},
	{
		id:      "note-titration",
		kind:    core.KindNote,
		title:   "Titration curves",
		content: "At the equivalence point of a strong acid-strong base titration the moles of acid equal the moles of base and the pH jumps sharply.",
		course:  "chem-201",
	},
	{
		id:      "note-integration",
		kind:    core.KindNote,
		title:   "Integration by parts",
		content: "Integration by parts comes from the product rule: the integral of u dv equals uv minus the integral of v du. Choose u by the LIATE ordering.",
		course:  "math-150",
	},
	{
		id:      "note-estates",
		kind:    core.KindNote,
		title:   "The Estates-General",
		content: "The Estates-General of 1789 collapsed when the Third Estate declared itself the National Assembly and swore the Tennis Court Oath.",
		course:  "hist-210",
	},
	{
		id:      "note-enzymes",
		kind:    core.KindNote,
		title:   "Enzyme kinetics",
		content: "Enzymes lower activation energy without being consumed. Michaelis-Menten kinetics describe how reaction velocity saturates as substrate concentration rises.",
		course:  "bio-101",
	},
	{
		id:      "note-series",
		kind:    core.KindNote,
		title:   "Convergence tests",
		content: "Use the ratio test for factorials and exponentials, the comparison test for rational terms, and remember that the harmonic series diverges.",
		course:  "math-150",
	},
	{
		id:      "material-bio-syllabus",
		kind:    core.KindCourseMaterial,
		title:   "Biology 101 syllabus",
		content: "Biology 101 covers cell structure, energy metabolism, genetics, and ecology. Grading: three midterms worth 20% each, lab reports 25%, final 15%.",
		course:  "bio-101",
	},
	{
		id:      "material-chem-lecture",
		kind:    core.KindCourseMaterial,
		title:   "Lecture 12: Equilibria",
		content: "Lecture 12 covers dynamic equilibrium, Le Chatelier's principle, and how temperature and pressure shifts move the equilibrium position.",
		course:  "chem-201",
	},
	{
		id:      "material-math-formulas",
		kind:    core.KindCourseMaterial,
		title:   "Integral reference sheet",
		content: "Reference sheet of standard antiderivatives, trigonometric identities, and substitution patterns allowed on the final exam.",
		course:  "math-150",
	},
	{
		id:      "material-hist-sources",
		kind:    core.KindCourseMaterial,
		title:   "Primary source packet",
		content: "Primary sources on the French Revolution: cahiers de doleances excerpts, the Declaration of the Rights of Man, and Robespierre's speeches.",
		course:  "hist-210",
	},
	{
		id:      "material-bio-lab-manual",
		kind:    core.KindCourseMaterial,
		title:   "Lab manual: chromatography",
		content: "Procedure for separating leaf pigments with paper chromatography, calculating Rf values for chlorophyll a, chlorophyll b, and carotenoids.",
		course:  "bio-101",
	},
	{
		id:      "session-bio-review",
		kind:    core.KindStudySession,
		title:   "Evening biology review",
		content: "Reviewed the photosynthesis light reactions and practiced labeling the chloroplast diagram for 90 minutes.",
		course:  "bio-101",
	},
	{
		id:      "session-chem-problems",
		kind:    core.KindStudySession,
		title:   "Chemistry problem session",
		content: "Worked through twelve buffer and titration problems with the study group in the library.",
		course:  "chem-201",
	},
	{
		id:      "session-math-drills",
		kind:    core.KindStudySession,
		title:   "Integration drills",
		content: "Timed drills on integration by parts and partial fractions. Got 8 of 10 on the practice set.",
		course:  "math-150",
	},
	{
		id:      "session-hist-outline",
		kind:    core.KindStudySession,
		title:   "Essay outline session",
		content: "Outlined the French Revolution essay: fiscal crisis, bread prices, Estates-General deadlock, and the October March.",
		course:  "hist-210",
	},
}

var (
	dbPath       = flag.String("db", "./engram_db", "path to the database directory")
	owner        = flag.String("owner", "demo", "owner id the seeded records belong to")
	seedFileName = flag.String("src", "", "file of extra note lines to seed instead of the built-in corpus")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

// daysFromNow formats a date n days ahead, for seeding plausible due dates.
func daysFromNow(n int) string {
	return time.Now().AddDate(0, 0, n).Format(time.DateOnly)
}

// item converts a seed into an indexable item owned by ownerID.
func (s seed) item(ownerID string) *ingest.Item {
	metadata := map[string]string{core.MetaOwnerID: ownerID}
	if s.title != "" {
		metadata[core.MetaTitle] = s.title
	}
	if s.status != "" {
		metadata[core.MetaStatus] = s.status
	}
	if s.priority != "" {
		metadata[core.MetaPriority] = s.priority
	}
	if s.course != "" {
		metadata[core.MetaCourseID] = s.course
	}
	if s.due != "" {
		metadata[core.MetaDueDate] = s.due
	}
	return &ingest.Item{Id: s.id, Content: s.content, Kind: s.kind, Metadata: metadata}
}

// itemsFromSeeds returns an iterator over the built-in corpus.
func itemsFromSeeds(ownerID string) iter.Seq[*ingest.Item] {
	return func(yield func(*ingest.Item) bool) {
		for _, s := range seeds {
			if !yield(s.item(ownerID)) {
				return
			}
		}
	}
}

// itemsFromFile returns an iterator that turns each non-empty line of a file
// into a note.
func itemsFromFile(filename, ownerID string) (iter.Seq[*ingest.Item], error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	return func(yield func(*ingest.Item) bool) {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		for n := 1; scanner.Scan(); n++ {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			item := &ingest.Item{
				Id:       fmt.Sprintf("seed-note-%d", n),
				Content:  line,
				Kind:     core.KindNote,
				Metadata: map[string]string{core.MetaOwnerID: ownerID},
			}
			if !yield(item) {
				return
			}
		}
	}, nil
}

// seedBatched reads from a source iterator and indexes items in batches.
func seedBatched(ctx context.Context, engine *engram.Engine, source iter.Seq[*ingest.Item], batchSize int) (indexed, failed int) {
	batch := make([]*ingest.Item, 0, batchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		result := engine.BatchIndexContent(ctx, batch)
		indexed += result.Indexed
		failed += result.Failed
		batch = batch[:0]
	}

	for item := range source {
		batch = append(batch, item)
		if len(batch) == batchSize {
			flush()
		}
	}

	// Process any remaining items
	flush()

	return indexed, failed
}

func main() {
	engine, err := engram.NewEngine(*dbPath)
	if err != nil {
		panic(err)
	}
	defer engine.Close()

	ctx := context.Background()

	// Determine the source of seed data
	source := itemsFromSeeds(*owner)
	if *seedFileName != "" {
		source, err = itemsFromFile(*seedFileName, *owner)
		if err != nil {
			panic(err)
		}
	}

	// Index in batches of 5
	indexed, failed := seedBatched(ctx, engine, source, 5)
	fmt.Printf("Seeded %d records for owner %q (%d failed)\n", indexed, *owner, failed)

	stats, err := engine.StoreStats(ctx)
	if err != nil {
		panic(err)
	}
	fmt.Printf("Store now holds %d records\n", stats.Count)
	for _, kind := range core.Kinds() {
		if n := stats.ByKind[kind]; n > 0 {
			fmt.Printf("  %s: %d\n", kind, n)
		}
	}
}
