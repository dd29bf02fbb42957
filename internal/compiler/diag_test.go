package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiagnostic_Error(t *testing.T) {
	d := Diagnostic{Code: ErrIllegalCycle, Block: "acc", Message: "feedback loop"}
	assert.Equal(t, "[E210] acc: feedback loop", d.Error())

	d.Port = "in"
	assert.Equal(t, "[E210] acc.in: feedback loop", d.Error())

	d = Diagnostic{Code: ErrMissingTimeRoot, Message: "no time root"}
	assert.Equal(t, "[E211] no time root", d.Error())
}

func TestErrorList_SortIsDeterministic(t *testing.T) {
	l := ErrorList{
		{Code: ErrNoConversionPath, Block: "b", Port: "x"},
		{Code: ErrDanglingReference, Block: "a", Port: "y"},
		{Code: ErrUnknownBlockType, Block: "a", Port: "x"},
	}
	l.Sort()
	assert.Equal(t, "a", l[0].Block)
	assert.Equal(t, "x", l[0].Port)
	assert.Equal(t, "y", l[1].Port)
	assert.Equal(t, "b", l[2].Block)

	assert.True(t, l.HasCode(ErrUnknownBlockType))
	assert.False(t, l.HasCode(ErrIllegalCycle))
}
