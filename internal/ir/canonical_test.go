package ir

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mdBase is the shape of an MD INCAR base layer: mixed ints, floats and
// flags, written out of key order.
func mdBase() IRObject {
	return NewIRObjectFromPairs(
		O("TEBEG", IRInt(3000)),
		O("TEEND", IRInt(2500)),
		O("NSW", IRInt(2000)),
		O("POTIM", IRFloat(2)),
		O("EDIFF", IRFloat(1e-5)),
		O("SMASS", IRFloat(0)),
		O("ISYM", IRInt(0)),
		O("LWAVE", IRBool(false)),
		O("PREC", IRString("Normal")),
	)
}

// holdDescriptor is a hold step as the workflow layer describes it.
func holdDescriptor() IRObject {
	return NewIRObjectFromPairs(
		O("name", IRString("snap_0_hold_2500")),
		O("kind", IRString("md")),
		O("parent_names", IRArray{IRString("snap_0_cool_2500")}),
		O("run", NewIRObjectFromPairs(
			O("vasp_cmd", IRString(">>vasp_cmd<<")),
			O("db_file", IRString(">>db_file<<")),
		)),
		O("incar", NewIRObjectFromPairs(
			O("TEEND", IRInt(2500)),
			O("TEBEG", IRInt(2500)),
		)),
	)
}

func TestMarshalCanonical_INCARLayer(t *testing.T) {
	got, err := MarshalCanonical(mdBase())
	require.NoError(t, err)
	assert.Equal(t,
		`{"EDIFF":0.00001,"ISYM":0,"LWAVE":false,"NSW":2000,"POTIM":2,"PREC":"Normal","SMASS":0,"TEBEG":3000,"TEEND":2500}`,
		string(got))
}

func TestMarshalCanonical_StepDescriptor(t *testing.T) {
	got, err := MarshalCanonical(holdDescriptor())
	require.NoError(t, err)
	assert.Equal(t,
		`{"incar":{"TEBEG":2500,"TEEND":2500},"kind":"md","name":"snap_0_hold_2500",`+
			`"parent_names":["snap_0_cool_2500"],"run":{"db_file":">>db_file<<","vasp_cmd":">>vasp_cmd<<"}}`,
		string(got))

	assert.NotContains(t, string(got), `\u003c`)
	assert.NotContains(t, string(got), `\u003e`)
}

func TestMarshalCanonical_Scalars(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"temperature", IRInt(3000), "3000"},
		{"negative priority", IRInt(-100), "-100"},
		{"int64 ceiling", IRInt(math.MaxInt64), "9223372036854775807"},
		{"int64 floor", IRInt(math.MinInt64), "-9223372036854775808"},
		{"flag", IRBool(true), "true"},
		{"structure name", IRString("Si64"), `"Si64"`},
		{"no parents", IRArray{}, "[]"},
		{"no overrides", IRObject{}, "{}"},
		{"go int", 500, "500"},
		{"go int64", int64(2500), "2500"},
		{"go string", "slow_quench", `"slow_quench"`},
		{"go bool", false, "false"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalCanonical(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestMarshalCanonical_INCARFloats(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"POTIM whole", IRFloat(2), "2"},
		{"POTIM fraction", IRFloat(1.5), "1.5"},
		{"ENCUT", IRFloat(520), "520"},
		{"SIGMA", IRFloat(0.05), "0.05"},
		{"EDIFF", IRFloat(1e-5), "0.00001"},
		{"EDIFF tight", IRFloat(1e-7), "1e-7"},
		{"EDIFFG", IRFloat(-0.01), "-0.01"},
		{"SMASS zero", IRFloat(0), "0"},
		{"accumulated step", IRFloat(0.1 + 0.2), "0.30000000000000004"},
		{"out of fixed range", IRFloat(1e21), "1e+21"},
		{"go float64", 0.25, "0.25"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalCanonical(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestMarshalCanonical_MixedCaseKeys(t *testing.T) {
	// User overrides may spell tags in lower case; upper case sorts first.
	layer := NewIRObjectFromPairs(
		O("potim", IRFloat(1)),
		O("NSW", IRInt(100)),
		O("ENCUT", IRInt(400)),
		O("ediff", IRFloat(1e-4)),
	)
	got, err := MarshalCanonical(layer)
	require.NoError(t, err)
	assert.Equal(t, `{"ENCUT":400,"NSW":100,"ediff":0.0001,"potim":1}`, string(got))
}

func TestMarshalCanonical_KeysSortByUTF16(t *testing.T) {
	// U+10000 encodes as a surrogate pair (0xD800...) and so sorts before
	// U+E000, although its UTF-8 bytes sort after.
	labels := NewIRObjectFromPairs(
		O("\uE000", IRInt(1)),
		O("Si", IRInt(0)),
		O("\U00010000", IRInt(2)),
	)
	got, err := MarshalCanonical(labels)
	require.NoError(t, err)
	assert.Equal(t, "{\"Si\":0,\"\U00010000\":2,\"\uE000\":1}", string(got))
}

func TestMarshalCanonical_MergedLayersAreOrderFree(t *testing.T) {
	override := NewIRObjectFromPairs(
		O("POTIM", IRFloat(1.5)),
		O("SMASS", IRNull{}),
		O("NSW", IRInt(1000)),
	)
	merged, err := MergeAll(IRObject{"incar": mdBase()}, IRObject{"incar": override})
	require.NoError(t, err)

	got, err := MarshalCanonical(merged)
	require.NoError(t, err)
	assert.Equal(t,
		`{"incar":{"EDIFF":0.00001,"ISYM":0,"LWAVE":false,"NSW":1000,"POTIM":1.5,"PREC":"Normal","TEBEG":3000,"TEEND":2500}}`,
		string(got))

	// Building the same tree in a different order yields the same bytes.
	byHand := IRObject{"incar": NewIRObjectFromPairs(
		O("TEEND", IRInt(2500)),
		O("PREC", IRString("Normal")),
		O("POTIM", IRFloat(1.5)),
		O("NSW", IRInt(1000)),
		O("LWAVE", IRBool(false)),
		O("ISYM", IRInt(0)),
		O("EDIFF", IRFloat(1e-5)),
		O("TEBEG", IRInt(3000)),
	)}
	again, err := MarshalCanonical(byHand)
	require.NoError(t, err)
	assert.Equal(t, got, again)
	assert.Equal(t, MustStepID(merged), MustStepID(byHand))
}

func TestMarshalCanonical_WholeFloatMatchesInt(t *testing.T) {
	asFloat := IRObject{"POTIM": IRFloat(2)}
	asInt := IRObject{"POTIM": IRInt(2)}

	a, err := MarshalCanonical(asFloat)
	require.NoError(t, err)
	b, err := MarshalCanonical(asInt)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, MustStepID(asFloat), MustStepID(asInt))
}

func TestMarshalCanonical_UnresolvedDeletionMarker(t *testing.T) {
	layer := mdBase()
	layer["TEEND"] = IRNull{}

	_, err := MarshalCanonical(IRObject{"incar": layer})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"TEEND"`)
	assert.Contains(t, err.Error(), "null")

	_, err = MarshalCanonical(nil)
	require.Error(t, err)
}

func TestMarshalCanonical_RejectsNonFinite(t *testing.T) {
	tests := []struct {
		name string
		val  float64
	}{
		{"NaN", math.NaN()},
		{"+Inf", math.Inf(1)},
		{"-Inf", math.Inf(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layer := mdBase()
			layer["POTIM"] = IRFloat(tt.val)
			_, err := MarshalCanonical(layer)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "non-finite")
			assert.Contains(t, err.Error(), `"POTIM"`)
		})
	}

	_, err := MarshalCanonical(math.Inf(1))
	assert.Error(t, err)
}

func TestMarshalCanonical_RejectsUnknownType(t *testing.T) {
	_, err := MarshalCanonical(struct{ NSW int }{NSW: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported type")
}

func TestMarshalCanonical_NFC(t *testing.T) {
	composed := "quench r\u00e9sum\u00e9"
	decomposed := "quench re\u0301sume\u0301"

	a, err := MarshalCanonical(IRObject{"SYSTEM": IRString(composed)})
	require.NoError(t, err)
	b, err := MarshalCanonical(IRObject{"SYSTEM": IRString(decomposed)})
	require.NoError(t, err)
	assert.Equal(t, a, b)

	// Keys normalize too.
	a, err = MarshalCanonical(IRObject{composed: IRInt(1)})
	require.NoError(t, err)
	b, err = MarshalCanonical(IRObject{decomposed: IRInt(1)})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestMarshalCanonical_CommentEscapes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"newline", "Si melt\nstage 1", `"Si melt\nstage 1"`},
		{"tab", "Si\t64 atoms", `"Si\t64 atoms"`},
		{"quote", `the "slow" quench`, `"the \"slow\" quench"`},
		{"backslash", `C:\runs\si`, `"C:\\runs\\si"`},
		{"markup kept", "T < 3000 & T > 500", `"T < 3000 & T > 500"`},
		{"line separator kept", "a\u2028b", "\"a\u2028b\""},
		{"paragraph separator kept", "a\u2029b", "\"a\u2029b\""},
		{"escaped text kept", `literal \u2028`, `"literal \\u2028"`},
		{"escaped text and separator", "literal \\u2028 and \u2028", "\"literal \\\\u2028 and \u2028\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalCanonical(IRString(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestMarshalCanonical_SeparatorsInKeys(t *testing.T) {
	obj := IRObject{"SYSTEM\u2028note": IRString("cooled\u2029held")}

	got, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, "{\"SYSTEM\u2028note\":\"cooled\u2029held\"}", string(got))
}

func TestMarshalCanonical_GoMapsAndSlices(t *testing.T) {
	settings := map[string]any{
		"strategy": "slow_quench",
		"schedule": map[string]any{"start": 3000, "end": int64(500), "step": 500.0},
		"sites":    []any{"Si", "Si", 2},
	}

	got, err := MarshalCanonical(settings)
	require.NoError(t, err)
	assert.Equal(t,
		`{"schedule":{"end":500,"start":3000,"step":500},"sites":["Si","Si",2],"strategy":"slow_quench"}`,
		string(got))
}

func TestMarshalCanonical_RoundTripIsStable(t *testing.T) {
	trees := map[string]IRValue{
		"INCAR layer":     mdBase(),
		"step descriptor": holdDescriptor(),
		"workflow": IRObject{
			"name":  IRString("Si_quench"),
			"steps": IRArray{holdDescriptor(), holdDescriptor()},
		},
		"float list": IRArray{IRFloat(0.1), IRFloat(1e-7), IRFloat(-2.5)},
	}

	for name, tree := range trees {
		t.Run(name, func(t *testing.T) {
			first, err := MarshalCanonical(tree)
			require.NoError(t, err)
			assert.NotContains(t, string(first), " ")
			assert.NotContains(t, string(first), "\n")

			decoded, err := UnmarshalIRValue(first)
			require.NoError(t, err)
			second, err := MarshalCanonical(decoded)
			require.NoError(t, err)
			assert.Equal(t, first, second)
		})
	}
}

func FuzzMarshalCanonicalIdempotent(f *testing.F) {
	f.Add(`{"TEBEG":3000,"TEEND":2500,"POTIM":2.0}`)
	f.Add(`{"incar":{"EDIFF":1e-5},"parent_names":["snap_0_cool_2500"]}`)
	f.Add(`{"run":{"vasp_cmd":">>vasp_cmd<<"}}`)
	f.Add(`[3000,2500,2000]`)
	f.Add(`"Si64"`)
	f.Add(`true`)

	f.Fuzz(func(t *testing.T, doc string) {
		val, err := UnmarshalIRValue([]byte(doc))
		if err != nil {
			t.Skip()
		}
		first, err := MarshalCanonical(val)
		if err != nil {
			t.Skip()
		}

		again, err := UnmarshalIRValue(first)
		require.NoError(t, err)
		second, err := MarshalCanonical(again)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}
