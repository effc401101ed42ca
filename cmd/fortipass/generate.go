package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fortipass/fortipass-go/internal/model"
	"github.com/fortipass/fortipass-go/internal/service"
)

func newGenerateCmd(a *app) *cobra.Command {
	var (
		length                   string
		letters, digits, special bool
		count                    int
		plain                    bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Print freshly generated passwords with their strength",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if count < 1 {
				return errors.New("--count must be at least 1")
			}

			svc := service.NewGeneratorService(a.cfg.DefaultLength, nil)
			req := model.GenerateRequest{
				Length:  model.LengthField(length),
				Letters: &letters,
				Digits:  &digits,
				Special: &special,
			}

			out := cmd.OutOrStdout()
			for i := 0; i < count; i++ {
				resp, err := svc.Generate(cmd.Context(), "", req)
				if err != nil {
					return err
				}
				if plain {
					fmt.Fprintln(out, resp.Password)
					continue
				}
				fmt.Fprintf(out, "%s  %s\n", resp.Password, renderStrength(resp.Strength, resp.Color))
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&length, "length", "l", "", "password length, 4 to 128 (default from DEFAULT_LENGTH)")
	flags.BoolVar(&letters, "letters", true, "include letters")
	flags.BoolVar(&digits, "digits", true, "include digits")
	flags.BoolVar(&special, "special", true, "include special characters")
	flags.IntVarP(&count, "count", "n", 1, "number of passwords to print")
	flags.BoolVar(&plain, "plain", false, "print only the passwords")
	return cmd
}
