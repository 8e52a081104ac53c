package main

import (
	"fmt"
	"os"

	"github.com/berfenger/sundispatch/pkg/sequence"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func main() {
	flags := pflag.NewFlagSet("fibonacci", pflag.ExitOnError)
	flags.Int("count", 20, "number of values to print")
	if err := flags.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	// env FIBONACCI_COUNT, overridden by --count
	v := viper.New()
	v.SetEnvPrefix("fibonacci")
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	count := v.GetInt("count")
	if count < 0 {
		fmt.Fprintln(os.Stderr, "count must be >= 0")
		os.Exit(2)
	}

	for _, n := range sequence.NewFibonacci().Take(count) {
		fmt.Println(n.String())
	}
}
