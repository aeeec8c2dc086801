package dataset

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestNew_RejectsRaggedColumns(t *testing.T) {
	_, err := New(
		Column{Name: "a", Values: []Value{Int(1), Int(2)}},
		Column{Name: "b", Values: []Value{Int(1)}},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `column "b" has 1 rows, expected 2`)
}

func TestNew_RejectsDuplicateAndUnnamed(t *testing.T) {
	_, err := New(Column{Name: "a"}, Column{Name: "a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate column")

	_, err = New(Column{Name: ""})
	require.Error(t, err)
}

func TestFrame_ColumnIsACopy(t *testing.T) {
	f, err := New(Column{Name: "a", Values: []Value{Int(1), Int(2)}})
	require.NoError(t, err)

	vals, err := f.Column("a")
	require.NoError(t, err)
	vals[0] = String("mutated")

	again, err := f.Column("a")
	require.NoError(t, err)
	assert.True(t, again[0].Equal(Int(1)))
}

func TestFrame_MissingColumn(t *testing.T) {
	f, err := FromRecords([]string{"x", "y"}, [][]any{{1, "a"}})
	require.NoError(t, err)

	_, err = f.Column("z")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingColumn))

	var mce *MissingColumnError
	require.True(t, errors.As(err, &mce))
	assert.Equal(t, "z", mce.Column)
	assert.Equal(t, []string{"x", "y"}, mce.Available)

	_, err = f.Select("x", "nope")
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestFrame_Select(t *testing.T) {
	f, err := FromRecords([]string{"income", "gender", "score"}, [][]any{
		{70000, "Male", 720},
		{30000, "Female", 580},
	})
	require.NoError(t, err)

	sub, err := f.Select("score", "income")
	require.NoError(t, err)
	assert.Equal(t, []string{"score", "income"}, sub.Columns())
	assert.Equal(t, 2, sub.RowCount())
	assert.False(t, sub.Has("gender"))

	row, err := sub.Row(1)
	require.NoError(t, err)
	assert.Len(t, row, 2)
	assert.True(t, row["income"].Equal(Int(30000)))
}

func TestFromRecords_ShortRow(t *testing.T) {
	_, err := FromRecords([]string{"a", "b"}, [][]any{{1}})
	require.Error(t, err)
}

func TestCompare_Order(t *testing.T) {
	ordered := []Value{
		Null(),
		Bool(false),
		Bool(true),
		Number(-1.5),
		Int(0),
		Int(2),
		String("Asian"),
		String("Black"),
	}
	for i := 0; i < len(ordered)-1; i++ {
		assert.Equal(t, -1, Compare(ordered[i], ordered[i+1]), "%v < %v", ordered[i], ordered[i+1])
		assert.Equal(t, 1, Compare(ordered[i+1], ordered[i]))
	}
}

func TestValue_EqualityAndKeys(t *testing.T) {
	assert.True(t, Int(1).Equal(Number(1.0)))
	assert.Equal(t, Int(1).Key(), Number(1.0).Key())
	negZero := Number(math.Copysign(0, -1))
	assert.Equal(t, 0, Compare(Int(0), negZero))
	assert.Equal(t, Int(0).Key(), negZero.Key(), "negative zero shares the key of zero")
	assert.False(t, Int(1).Equal(String("1")))
	assert.NotEqual(t, Int(1).Key(), String("1").Key())
	assert.NotEqual(t, Null().Key(), String("null").Key())
}

func TestOf(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want Value
	}{
		{"nil", nil, Null()},
		{"int", 3, Int(3)},
		{"int32", int32(3), Int(3)},
		{"float", 0.5, Number(0.5)},
		{"nan", math.NaN(), Null()},
		{"bool", true, Bool(true)},
		{"bytes", []byte("x"), String("x")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Of(tt.in)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %v want %v", got, tt.want)
		})
	}

	_, err := Of(struct{}{})
	assert.Error(t, err)
}

func TestValue_Encoding(t *testing.T) {
	vals := []Value{Null(), Bool(true), Int(7), Number(0.25), String("Male")}

	data, err := json.Marshal(vals)
	require.NoError(t, err)
	assert.JSONEq(t, `[null,true,7,0.25,"Male"]`, string(data))

	var back []Value
	require.NoError(t, json.Unmarshal(data, &back))
	require.Len(t, back, len(vals))
	for i := range vals {
		assert.True(t, vals[i].Equal(back[i]))
	}

	out, err := yaml.Marshal(map[string]Value{"group": String("Female"), "count": Int(5)})
	require.NoError(t, err)
	assert.Contains(t, string(out), "group: Female")
	assert.Contains(t, string(out), "count: 5")
}
