package main

import (
	"fmt"
	"math/big"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/CodeAndHammer/eventdle/internal/catalog"
	"github.com/CodeAndHammer/eventdle/internal/codec"
	constants "github.com/CodeAndHammer/eventdle/internal/constants"
	util "github.com/CodeAndHammer/eventdle/internal/util"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	_ = godotenv.Load()
	util.SetupLogging(os.Stderr, util.GetEnv("LOG_LEVEL", "info"), !isProductionEnv())

	if err := newRootCmd().Execute(); err != nil {
		util.LogFatal("%v", err)
	}
}

func newRootCmd() *cobra.Command {
	cfg := serverConfig{}

	serve := func(cmd *cobra.Command, args []string) error {
		return runServer(cfg)
	}

	rootCmd := &cobra.Command{
		Use:           "eventdle",
		Short:         "Guess-the-event word game server",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve,
	}
	rootCmd.PersistentFlags().StringVar(&cfg.CatalogPath, "catalog", util.GetEnv("CATALOG_PATH", constants.DefaultCatalogPath), "path to the event catalog (.json or .yaml)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP game server",
		RunE:  serve,
	}
	for _, c := range []*cobra.Command{rootCmd, serveCmd} {
		c.Flags().StringVar(&cfg.Port, "port", util.GetEnv("PORT", constants.DefaultPort), "port to listen on")
		c.Flags().StringVar(&cfg.StaticDir, "static", util.GetEnv("STATIC_DIR", constants.DefaultStaticDir), "directory holding index.html and assets")
	}

	rootCmd.AddCommand(serveCmd, newPickCmd(&cfg), newTokenCmd())
	return rootCmd
}

// newPickCmd draws a random question and event, then shows the token and
// what it decodes back to.
func newPickCmd(cfg *serverConfig) *cobra.Command {
	var keyFlag string

	cmd := &cobra.Command{
		Use:   "pick",
		Short: "Pick a random event and print its token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.Load(cfg.CatalogPath)
			if err != nil {
				return err
			}
			key, err := parseKey(keyFlag)
			if err != nil {
				return err
			}
			c := codec.NewCodec(key)

			question, err := cat.PickQuestion()
			if err != nil {
				return err
			}
			event, err := cat.PickEvent(question)
			if err != nil {
				return err
			}
			token := c.Encode(question, event)
			q, decoded, err := c.Decode(token)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d: %s\n", question, event)
			fmt.Fprintln(out, token)
			fmt.Fprintf(out, "(%d, %q)\n", q, decoded)
			return nil
		},
	}
	cmd.Flags().StringVar(&keyFlag, "key", "", "obfuscation key (defaults to the current Unix time)")
	return cmd
}

func newTokenCmd() *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Encode or decode game tokens",
	}

	var (
		question int
		event    string
		encKey   string
	)
	encodeCmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode a question and event into a token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseKey(encKey)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), codec.NewCodec(key).Encode(catalog.QuestionID(question), event))
			return nil
		},
	}
	encodeCmd.Flags().IntVar(&question, "question", 0, "question id")
	encodeCmd.Flags().StringVar(&event, "event", "", "event text")
	encodeCmd.Flags().StringVar(&encKey, "key", "", "obfuscation key")
	_ = encodeCmd.MarkFlagRequired("event")
	_ = encodeCmd.MarkFlagRequired("key")

	var decKey string
	decodeCmd := &cobra.Command{
		Use:   "decode TOKEN",
		Short: "Decode a token back into its question and event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseKey(decKey)
			if err != nil {
				return err
			}
			q, ev, err := codec.NewCodec(key).Decode(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d: %s\n", q, ev)
			return nil
		},
	}
	decodeCmd.Flags().StringVar(&decKey, "key", "", "obfuscation key")
	_ = decodeCmd.MarkFlagRequired("key")

	tokenCmd.AddCommand(encodeCmd, decodeCmd)
	return tokenCmd
}

// parseKey reads a decimal key. An empty string falls back to the same
// source the server uses.
func parseKey(s string) (*big.Int, error) {
	if s == "" {
		return obfuscationKey(), nil
	}
	key, ok := new(big.Int).SetString(s, 10)
	if !ok || key.Sign() < 0 {
		return nil, fmt.Errorf("invalid key %q: want a non-negative integer", s)
	}
	return key, nil
}
