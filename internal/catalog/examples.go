package catalog

import "github.com/roach88/stembed/internal/model"

// BellProcess is the two-party Bell correlation: settings X, Y and
// outcomes A, B.
func BellProcess() *model.Process {
	return mustProcess("bell", []string{"X", "Y"}, []string{"A", "B"})
}

// Bell returns the Bell implementations: a monolithic quantum box, a shared
// entangled state measured locally, and classical one-way communication.
func Bell() []*model.Implementation {
	p := BellProcess()

	commonCause := build("bell_quantum_common_cause", p).
		node("s", model.Component{Class: model.ClassQuantum, Resource: model.ResourceEntangled}).
		node("f", model.Component{Class: model.ClassQuantum, Measurement: true}).
		node("g", model.Component{Class: model.ClassQuantum, Measurement: true}).
		order(
			[2]string{"s", "f"},
			[2]string{"s", "g"},
			[2]string{"X", "f"},
			[2]string{"Y", "g"},
			[2]string{"f", "A"},
			[2]string{"g", "B"},
		).
		done()

	oneWay := build("bell_one_way_comm", p).
		node("a", model.Component{}).
		node("b", model.Component{}).
		order(
			[2]string{"X", "a"},
			[2]string{"a", "A"},
			[2]string{"a", "b"},
			[2]string{"Y", "b"},
			[2]string{"b", "B"},
		).
		done()

	return []*model.Implementation{
		monolithic("bell_monolithic", p, model.Component{Label: "Bell_monolithic", Class: model.ClassQuantum}),
		commonCause,
		oneWay,
	}
}

// PRBoxProcess is the Popescu-Rohrlich box: same interface as Bell.
func PRBoxProcess() *model.Process {
	return mustProcess("pr_box", []string{"X", "Y"}, []string{"A", "B"})
}

// PRBox returns the PR box implementations: monolithic, and a nonsignaling
// common cause shared by two local boxes.
func PRBox() []*model.Implementation {
	p := PRBoxProcess()

	commonCause := build("pr_box_common_cause", p).
		node("s", model.Component{Class: model.ClassBoxWorld, Resource: model.ResourceNonSignaling}).
		node("f", model.Component{}).
		node("g", model.Component{}).
		order(
			[2]string{"X", "f"},
			[2]string{"Y", "g"},
			[2]string{"f", "A"},
			[2]string{"g", "B"},
		).
		correlate("s", "f", model.ResourceNonSignaling).
		correlate("s", "g", model.ResourceNonSignaling).
		done()

	return []*model.Implementation{
		monolithic("pr_box_monolithic", p, model.Component{Label: "PR_monolithic", Class: model.ClassBoxWorld}),
		commonCause,
	}
}

// CNOTProcess is the two-qubit controlled-NOT gate.
func CNOTProcess() *model.Process {
	return mustProcess("cnot", []string{"q1", "q2"}, []string{"q1_out", "q2_out"})
}

// CNOT returns the CNOT implementations: monolithic, H-CZ-H on the target,
// and a two-gate zigzag.
func CNOT() []*model.Implementation {
	p := CNOTProcess()
	gate := func(label string) model.Component {
		return model.Component{Label: label, Class: model.ClassQuantum}
	}

	hczh := build("cnot_h_cz_h", p).
		node("H1", gate("H")).
		node("CZ", gate("CZ")).
		node("H2", gate("H")).
		order(
			[2]string{"q1", "H1"},
			[2]string{"H1", "CZ"},
			[2]string{"CZ", "H2"},
			[2]string{"H2", "q1_out"},
			[2]string{"q2", "CZ"},
			[2]string{"CZ", "q2_out"},
		).
		done()

	zigzag := build("cnot_zigzag_variant", p).
		node("s1", gate("s1")).
		node("s2", gate("s2")).
		order(
			[2]string{"q1", "s1"},
			[2]string{"s1", "s2"},
			[2]string{"s2", "q1_out"},
			[2]string{"q2", "s2"},
			[2]string{"s1", "q2_out"},
		).
		done()

	return []*model.Implementation{
		monolithic("cnot_monolithic", p, gate("CNOT")),
		hczh,
		zigzag,
	}
}

// Simple returns processes that embed into any spacetime with enough
// ordered room: identity, a one-stage chain, two parallel chains and a
// fan-out.
func Simple() []*model.Implementation {
	identity := build("direct_connection", mustProcess("identity", []string{"In"}, []string{"Out"})).
		order([2]string{"In", "Out"}).
		done()

	chain := build("simple_chain", mustProcess("simple_chain", []string{"Start"}, []string{"End"})).
		node("Processor", model.Component{Label: "Transformer"}).
		order([2]string{"Start", "Processor"}, [2]string{"Processor", "End"}).
		done()

	parallel := build("parallel_chains", mustProcess("parallel", []string{"In1", "In2"}, []string{"Out1", "Out2"})).
		node("Proc1", model.Component{Label: "Worker1"}).
		node("Proc2", model.Component{Label: "Worker2"}).
		order(
			[2]string{"In1", "Proc1"},
			[2]string{"Proc1", "Out1"},
			[2]string{"In2", "Proc2"},
			[2]string{"Proc2", "Out2"},
		).
		done()

	fanout := build("fanout", mustProcess("fanout", []string{"Input"}, []string{"Out1", "Out2"})).
		node("Splitter", model.Component{Label: "Duplicator"}).
		order(
			[2]string{"Input", "Splitter"},
			[2]string{"Splitter", "Out1"},
			[2]string{"Splitter", "Out2"},
		).
		done()

	return []*model.Implementation{identity, chain, parallel, fanout}
}

// SimpleChain is the total order A < B < C.
func SimpleChain() *model.Spacetime {
	return mustSpacetime("simple_chain",
		[]string{"A", "B", "C"},
		[2]string{"A", "B"},
		[2]string{"B", "C"},
	)
}

// BellLike has two timelike pairs, Alice's and Bob's, spacelike to each
// other.
func BellLike() *model.Spacetime {
	return mustSpacetime("bell_like",
		[]string{"Alice_in", "Alice_out", "Bob_in", "Bob_out"},
		[2]string{"Alice_in", "Alice_out"},
		[2]string{"Bob_in", "Bob_out"},
	)
}

// BellWithSource extends BellLike with a lab point on each side and a
// source in the common past of both labs.
func BellWithSource() *model.Spacetime {
	return mustSpacetime("bell_with_source",
		[]string{"Source", "Alice_in", "Alice_lab", "Alice_out", "Bob_in", "Bob_lab", "Bob_out"},
		[2]string{"Alice_in", "Alice_lab"},
		[2]string{"Alice_lab", "Alice_out"},
		[2]string{"Bob_in", "Bob_lab"},
		[2]string{"Bob_lab", "Bob_out"},
		[2]string{"Source", "Alice_lab"},
		[2]string{"Source", "Bob_lab"},
	)
}

// ParallelDiamond is Start < {Path1_mid, Path2_mid} < End with the two
// middle points spacelike.
func ParallelDiamond() *model.Spacetime {
	return mustSpacetime("parallel",
		[]string{"Start", "Path1_mid", "Path2_mid", "End"},
		[2]string{"Start", "Path1_mid"},
		[2]string{"Path1_mid", "End"},
		[2]string{"Start", "Path2_mid"},
		[2]string{"Path2_mid", "End"},
	)
}
