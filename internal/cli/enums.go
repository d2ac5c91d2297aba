package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/paramsrc/internal/validators"
)

// EnumView lists one enum type's members in declaration order.
type EnumView struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// NewEnumsCommand creates the enums command.
func NewEnumsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "enums",
		Short:         "List the enum types suites can reference",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)
			reg := validators.Enums()

			var views []EnumView
			for _, name := range reg.TypeNames() {
				t, err := reg.Get(name)
				if err != nil {
					return formatter.Fail(ExitCommandError, ErrCodeGeneric, err)
				}
				views = append(views, EnumView{Name: name, Members: t.Names()})
			}

			if formatter.JSON() {
				return formatter.Success(views)
			}
			for _, v := range views {
				fmt.Fprintf(formatter.Writer, "%s: %s\n", v.Name, strings.Join(v.Members, ", "))
			}
			return nil
		},
	}
}
