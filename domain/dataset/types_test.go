package dataset

import "testing"

func fp(v float64) *float64 { return &v }

func row(seg, variant string, values map[string]*float64) Row {
	return Row{Segment: seg, Variant: variant, Values: values}
}

func TestTableLookups(t *testing.T) {
	table := Table{Rows: []Row{
		row("all", "control", nil),
		row("all", "test", nil),
		row("ios", "control", nil),
		row("ios", "test", nil),
	}}

	if r := table.OverallControl(); r == nil || !r.IsControl() {
		t.Fatal("overall control not found")
	}
	if r := table.OverallTest(); r == nil || r.IsControl() {
		t.Fatal("overall test not found")
	}
	if r := table.SegmentTest("ios"); r == nil || r.Segment != "ios" {
		t.Fatal("ios test not found")
	}
	if r := table.SegmentControl("android"); r != nil {
		t.Fatal("missing segment should return nil")
	}

	segs := table.Segments()
	if len(segs) != 2 || segs[0] != "all" || segs[1] != "ios" {
		t.Errorf("segments = %v", segs)
	}
}

func TestDeriveEffect(t *testing.T) {
	control := row("all", "control", map[string]*float64{"ctr": fp(0.050)})
	test := row("all", "test", map[string]*float64{"ctr": fp(0.048)})

	eff := DeriveEffect(&control, &test, "ctr")
	if eff == nil {
		t.Fatal("expected derived effect")
	}
	if got := *eff; got < -0.0401 || got > -0.0399 {
		t.Errorf("effect = %v, want -0.04", got)
	}
}

func TestDeriveEffectMissingEvidence(t *testing.T) {
	control := row("all", "control", map[string]*float64{"ctr": fp(0)})
	test := row("all", "test", map[string]*float64{"ctr": fp(0.048)})

	if eff := DeriveEffect(&control, &test, "ctr"); eff != nil {
		t.Errorf("zero control denominator must be nil, got %v", *eff)
	}
	if eff := DeriveEffect(nil, &test, "ctr"); eff != nil {
		t.Errorf("missing control row must be nil, got %v", *eff)
	}
	if eff := DeriveEffect(&control, &test, "cpm"); eff != nil {
		t.Errorf("absent metric must be nil, got %v", *eff)
	}
}

func TestMeasurementIsUsable(t *testing.T) {
	if (Measurement{}).IsUsable() {
		t.Error("empty measurement should not be usable")
	}
	if (Measurement{EffectRelative: fp(0.01)}).IsUsable() {
		t.Error("measurement without p-value should not be usable")
	}
	if !(Measurement{EffectRelative: fp(0.01), PValue: fp(0.2)}).IsUsable() {
		t.Error("complete measurement should be usable")
	}
}
