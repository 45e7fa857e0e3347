package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"golang.org/x/term"

	"github.com/polykit/poly/bind"
	"github.com/polykit/poly/concept"
	"github.com/polykit/poly/iterator"
	"github.com/polykit/poly/vtable"
)

// families instantiable from the command line, by element type name.
var familyBuilders = map[string]func() *iterator.Family{
	"int":     iterator.FamilyFor[int],
	"int32":   iterator.FamilyFor[int32],
	"int64":   iterator.FamilyFor[int64],
	"string":  iterator.FamilyFor[string],
	"float64": iterator.FamilyFor[float64],
}

func main() {
	var (
		list        = flag.Bool("list", false, "List registered concepts and exit")
		conceptName = flag.String("concept", "", "Show a single concept's operations")
		elems       = flag.String("elems", "int,int64,string", "Element types to build iterator families for (comma-separated)")
		demo        = flag.Bool("demo", false, "Run the erased-iterator walkthrough")
		stats       = flag.Bool("stats", false, "Print vtable cache statistics")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if !*list && *conceptName == "" && !*demo && !*stats && !*interactive {
		fmt.Fprintln(os.Stderr, "Usage: inspect -list [-elems int,string,...]")
		fmt.Fprintln(os.Stderr, "       inspect -concept <name>")
		fmt.Fprintln(os.Stderr, "       inspect -demo [-stats]")
		fmt.Fprintln(os.Stderr, "       inspect -i  (interactive mode)")
		os.Exit(1)
	}

	if err := buildFamilies(*elems); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode requires a terminal")
			os.Exit(1)
		}
		if err := runInteractive(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*conceptName, *list, *demo, *stats); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func buildFamilies(elems string) error {
	for _, name := range strings.Split(elems, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		build, ok := familyBuilders[name]
		if !ok {
			return fmt.Errorf("unknown element type %q (known: %s)", name, strings.Join(knownElems(), ", "))
		}
		build()
	}
	return nil
}

func knownElems() []string {
	names := make([]string, 0, len(familyBuilders))
	for name := range familyBuilders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func run(conceptName string, list, demo, stats bool) error {
	if list {
		listConcepts()
	}

	if conceptName != "" {
		if err := showConcept(conceptName); err != nil {
			return err
		}
	}

	if demo {
		if err := runDemo(); err != nil {
			return err
		}
	}

	if stats {
		printStats()
	}
	return nil
}

func listConcepts() {
	concepts := concept.All()
	sort.Slice(concepts, func(i, j int) bool { return concepts[i].Name() < concepts[j].Name() })

	fmt.Printf("Registered concepts: %d\n\n", len(concepts))
	for _, c := range concepts {
		fmt.Printf("  %-40s %2d operations  fingerprint %016x\n", c.Name(), c.Len(), c.Fingerprint())
	}
}

func showConcept(name string) error {
	c, ok := concept.Lookup(name)
	if !ok {
		return fmt.Errorf("concept %q is not registered (try -list)", name)
	}

	fmt.Printf("Concept: %s\n", c.Name())
	fmt.Printf("Fingerprint: %016x\n", c.Fingerprint())

	if bases := c.Bases(); len(bases) > 0 {
		names := make([]string, len(bases))
		for i, b := range bases {
			names[i] = b.Name()
		}
		sort.Strings(names)
		fmt.Printf("Refines: %s\n", strings.Join(names, ", "))
	}

	fmt.Printf("\nOperations:\n")
	ops := c.Operations()
	sort.Slice(ops, func(i, j int) bool { return ops[i].Name < ops[j].Name })
	for _, op := range ops {
		fmt.Printf("  %-20s %s\n", op.Name, op.Sig.String())
	}

	if defaults := bind.DefaultsFor(c); len(defaults) > 0 {
		fmt.Printf("\nDefault concept maps:\n")
		for _, name := range defaults {
			fmt.Printf("  %s\n", name)
		}
	}
	return nil
}

// runDemo erases a few concrete iterators and walks them, showing the
// placement decisions and vtable reuse along the way.
func runDemo() error {
	before := vtable.Stats()

	xs := []int{2, 3, 5, 7, 11}
	fmt.Printf("Walking %v through an erased forward iterator:\n  ", xs)

	it, err := iterator.Erase[int](iterator.Forward, iterator.Begin(xs))
	if err != nil {
		return err
	}
	end, err := iterator.Erase[int](iterator.Forward, iterator.End(xs))
	if err != nil {
		return err
	}
	for {
		done, err := it.Equal(end)
		if err != nil {
			return err
		}
		if done {
			break
		}
		v, err := it.Deref()
		if err != nil {
			return err
		}
		fmt.Printf("%d ", v)
		if err := it.Next(); err != nil {
			return err
		}
	}
	fmt.Printf("\n  concrete type %s, %s storage\n\n", it.ConcreteType(), it.Poly().Mode())

	counting, err := iterator.Erase[int64](iterator.Forward, iterator.CountingIter{N: 100})
	if err != nil {
		return err
	}
	v, err := counting.Deref()
	if err != nil {
		return err
	}
	fmt.Printf("Counting iterator at %d: concrete type %s, %s storage\n\n", v, counting.ConcreteType(), counting.Poly().Mode())

	after := vtable.Stats()
	fmt.Printf("VTables built during demo: %d (shared: %d)\n", after.Tables-before.Tables, after.Hits-before.Hits)
	return nil
}

func printStats() {
	s := vtable.Stats()
	fmt.Printf("\nVTable cache: %d tables, %d hits, %d misses\n", s.Tables, s.Hits, s.Misses)
}
