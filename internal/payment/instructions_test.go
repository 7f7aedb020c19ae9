package payment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetInstructions(t *testing.T) {
	t.Run("ReturnsTemplateForKnownMethod", func(t *testing.T) {
		instructions := GetInstructions(MethodBankTransfer)
		assert.NotEmpty(t, instructions)

		found := false
		for _, instr := range instructions {
			if strings.Contains(instr, "{{code}}") {
				found = true
				break
			}
		}
		assert.True(t, found, "bank transfer steps should mention the transfer content")
	})

	t.Run("ReturnsDefaultForUnknown", func(t *testing.T) {
		assert.Len(t, GetInstructions("crypto"), 1)
	})
}

func TestInjectVariables(t *testing.T) {
	t.Run("ReplacesPlaceholders", func(t *testing.T) {
		steps := []string{"Transfer {{amount}} with content {{code}}."}
		vars := InstructionVars{"amount": "1500000", "code": "PC1"}

		assert.Equal(t, []string{"Transfer 1500000 with content PC1."}, InjectVariables(steps, vars))
	})

	t.Run("LeavesUnknownPlaceholders", func(t *testing.T) {
		result := InjectVariables([]string{"Pay {{amount}}"}, InstructionVars{})
		assert.Equal(t, "Pay {{amount}}", result[0])
	})
}
