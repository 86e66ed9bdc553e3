package cli

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/abigailhaddad/apportionment/pkg/version"
)

// displayWelcomeBanner exibe o banner de boas-vindas com informações de versão.
func displayWelcomeBanner() {
	banner := `
   ____  _____  _  _____ _____
  / ___||  ___|/ ||___ /|___ /
  \___ \| |_   | |  |_ \  |_ \
   ___) |  _|  | | ___) |___) |
  |____/|_|    |_||____/|____/
`
	red := color.New(color.FgRed, color.Bold).SprintFunc()
	blue := color.New(color.FgBlue, color.Bold).SprintFunc()

	fmt.Println(red(banner))
	fmt.Println(blue(fmt.Sprintf("SF133 Budget Execution Normalizer (v%s)", version.FormatVersion())))
}
