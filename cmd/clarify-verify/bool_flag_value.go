package clarifyverify

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

// boolChoiceValue is a bool flag that accepts yes/no and on/off and may be
// given bare (--clarify) or with a value (--clarify=no).
type boolChoiceValue struct {
	target *bool
}

func (value *boolChoiceValue) String() string {
	if value == nil || value.target == nil {
		return ""
	}
	return strconv.FormatBool(*value.target)
}

func (value *boolChoiceValue) Set(input string) error {
	parsed, ok := parseBoolChoice(input)
	if !ok {
		return fmt.Errorf("invalid boolean value %q", input)
	}
	*value.target = parsed
	return nil
}

func (value *boolChoiceValue) Type() string { return "bool" }

func addBoolChoiceFlag(flags *pflag.FlagSet, target *bool, name string, usage string) {
	flags.Var(&boolChoiceValue{target: target}, name, usage)
	flag := flags.Lookup(name)
	flag.NoOptDefVal = "true"
	flag.DefValue = strconv.FormatBool(*target)
}

func parseBoolChoice(input string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "", "true", "t", "1", "yes", "y", "on":
		return true, true
	case "false", "f", "0", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}
