package walk_test

import (
	"context"
	"fmt"
	"strings"

	"github.com/matzehuels/cpgwalk/pkg/cpg"
	"github.com/matzehuels/cpgwalk/pkg/walk"
)

func names(p walk.Path) string {
	parts := make([]string, len(p))
	for i, n := range p {
		parts[i] = n.Name.String()
	}
	return strings.Join(parts, " -> ")
}

func ExampleExplore() {
	// entry; if check { log }; exit
	g := cpg.New()
	entry := g.NewNode(cpg.KindStatement, "entry")
	check := g.NewNode(cpg.KindExpression, "check")
	log := g.NewNode(cpg.KindCall, "log")
	exit := g.NewNode(cpg.KindStatement, "exit")
	_, _ = g.AddEOG(entry, check)
	_, _ = g.AddEOG(check, log)
	_, _ = g.AddEOG(check, exit)
	_, _ = g.AddEOG(log, exit)

	isExit := func(n *cpg.Node) bool { return n == exit }
	res, _ := walk.Explore(context.Background(), entry, walk.Nodes((*cpg.Node).NextEOG), isExit, walk.DefaultOptions())

	fmt.Println("possible:", res.Possible())
	fmt.Println("mandatory:", res.Mandatory())
	for _, p := range res.Fulfilled {
		fmt.Println(names(p))
	}
	// Output:
	// possible: true
	// mandatory: true
	// entry -> check -> exit
	// entry -> check -> log -> exit
}

func ExampleExplore_notMandatory() {
	// A log call happens on one branch only.
	g := cpg.New()
	entry := g.NewNode(cpg.KindStatement, "entry")
	check := g.NewNode(cpg.KindExpression, "check")
	log := g.NewNode(cpg.KindCall, "log")
	skip := g.NewNode(cpg.KindStatement, "skip")
	_, _ = g.AddEOG(entry, check)
	_, _ = g.AddEOG(check, log)
	_, _ = g.AddEOG(check, skip)

	res, _ := walk.Explore(context.Background(), entry, walk.Nodes((*cpg.Node).NextEOG), (*cpg.Node).IsCall, walk.DefaultOptions())

	fmt.Println("possible:", res.Possible())
	fmt.Println("mandatory:", res.Mandatory())
	for _, f := range res.Failed {
		fmt.Println(f.Reason, names(f.Path))
	}
	// Output:
	// possible: true
	// mandatory: false
	// path-ended entry -> check -> skip
}

func ExampleFollowUntilHit() {
	// func id(p) { return p }
	// a := id(secret)
	// b := id(public)
	g := cpg.New()
	secret := g.NewNode(cpg.KindVariable, "secret")
	public := g.NewNode(cpg.KindVariable, "public")
	a := g.NewNode(cpg.KindVariable, "a")
	b := g.NewNode(cpg.KindVariable, "b")
	call1 := g.NewNode(cpg.KindCall, "id")
	call2 := g.NewNode(cpg.KindCall, "id")
	p := g.NewNode(cpg.KindParameter, "p")
	_, _ = g.AddDFG(secret, p, cpg.WithCallingContext(cpg.In(call1)))
	_, _ = g.AddDFG(public, p, cpg.WithCallingContext(cpg.In(call2)))
	_, _ = g.AddDFG(p, a, cpg.WithCallingContext(cpg.Out(call1)))
	_, _ = g.AddDFG(p, b, cpg.WithCallingContext(cpg.Out(call2)))

	reaches := func(s walk.Sensitivity, target *cpg.Node) bool {
		q := walk.Query{
			Scope:       walk.Interprocedural{},
			Direction:   walk.Forward{Graph: walk.DFG},
			Sensitivity: s,
		}
		res, err := walk.FollowUntilHit(context.Background(), secret, q, func(n *cpg.Node) bool { return n == target }, walk.DefaultOptions())
		return err == nil && res.Possible()
	}

	fmt.Println("secret reaches a:", reaches(walk.ContextSensitive, a))
	fmt.Println("secret reaches b:", reaches(walk.ContextSensitive, b))
	fmt.Println("without context:", reaches(0, b))
	// Output:
	// secret reaches a: true
	// secret reaches b: false
	// without context: true
}

func ExampleQuery_String() {
	q := walk.DFGQuery()
	q.Scope = walk.Interprocedural{MaxCallDepth: walk.Max(3)}
	fmt.Println(q)
	// Output:
	// forward(dfg) interprocedural(depth=3, steps=unbounded) [context+field]
}
