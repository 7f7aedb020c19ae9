package payment

import "strings"

var InstructionMap = map[Method][]string{
	MethodCOD: {
		"Your order will be shipped to the address you provided",
		"Prepare {{amount}} in cash when the courier arrives",
		"Pay the courier directly and keep the receipt",
	},

	MethodBankTransfer: {
		"Open your banking app and scan the QR code",
		"Or transfer {{amount}} to account {{account_no}} ({{account_name}})",
		"Use {{code}} as the transfer content so we can match your payment",
		"Your order is processed once the payment is confirmed",
	},
}

func GetInstructions(method Method) []string {
	if steps, ok := InstructionMap[method]; ok {
		return steps
	}

	return []string{
		"Follow the payment instructions shown at checkout",
	}
}

type InstructionVars map[string]string

func InjectVariables(
	steps []string,
	vars InstructionVars,
) []string {
	result := make([]string, 0, len(steps))

	for _, step := range steps {
		updated := step
		for key, value := range vars {
			updated = strings.ReplaceAll(
				updated,
				"{{"+key+"}}",
				value,
			)
		}
		result = append(result, updated)
	}

	return result
}
