package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/uitestgen/pkg/tokenstore"
)

type tokenFlags struct {
	app  string
	user string
}

func newTokensCmd(a *app) *cobra.Command {
	var f tokenFlags

	cmd := &cobra.Command{
		Use:   "tokens",
		Short: "Manage cached session tokens",
		Long:  `Session tokens are kept in the configured token store (token_store) keyed by application and username.`,
	}
	pf := cmd.PersistentFlags()
	pf.StringVar(&f.app, "app", "", "application name (default: settings app)")
	pf.StringVar(&f.user, "user", "", "username (default: settings username)")

	cmd.AddCommand(newTokensPutCmd(a, &f), newTokensGetCmd(a, &f), newTokensDeleteCmd(a, &f))
	return cmd
}

func (f *tokenFlags) key(a *app) (string, string) {
	app, user := f.app, f.user
	if app == "" {
		app = a.settings.App
	}
	if user == "" {
		user = a.settings.Username
	}
	return app, user
}

func (a *app) withStore(fn func(tokenstore.Store) error) (err error) {
	store, err := tokenstore.Open(a.settings.TokenStore)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, store.Close())
	}()
	return fn(store)
}

func newTokensPutCmd(a *app, f *tokenFlags) *cobra.Command {
	var token, file string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "put",
		Short: "Store a token, given inline or as a token file",
		Example: `  uitestgen tokens put --file token.json
  uitestgen tokens put --app shop --user alice --token '{"access_token":"abc"}' --ttl 1h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (token == "") == (file == "") {
				return errors.New("exactly one of --token or --file is required")
			}
			if file != "" {
				tokens, err := tokenstore.LoadFile(file)
				if err != nil {
					return err
				}
				if token, err = tokens.Encode(); err != nil {
					return err
				}
			}
			if !cmd.Flags().Changed("ttl") {
				ttl = a.settings.TokenTTL
			}

			app, user := f.key(a)
			return a.withStore(func(s tokenstore.Store) error {
				if err := s.Put(cmd.Context(), app, user, token, ttl); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "stored token for %s/%s\n", app, user)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "token value")
	cmd.Flags().StringVar(&file, "file", "", "JSON token file (access_token, csrftoken, sessionid)")
	cmd.Flags().DurationVar(&ttl, "ttl", tokenstore.DefaultTTL, "token lifetime (default: settings token_ttl)")
	return cmd
}

func newTokensGetCmd(a *app, f *tokenFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Print a stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, user := f.key(a)
			return a.withStore(func(s tokenstore.Store) error {
				token, err := s.Get(cmd.Context(), app, user)
				if errors.Is(err, tokenstore.ErrNotFound) {
					return fmt.Errorf("no token for %s/%s", app, user)
				}
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), token)
				return nil
			})
		},
	}
}

func newTokensDeleteCmd(a *app, f *tokenFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete",
		Short: "Remove a stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, user := f.key(a)
			return a.withStore(func(s tokenstore.Store) error {
				if err := s.Delete(cmd.Context(), app, user); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted token for %s/%s\n", app, user)
				return nil
			})
		},
	}
}
