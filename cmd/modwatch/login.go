package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/modwatch/modwatch/redapi"
)

var cmdLogin = &cli.Command{
	Name:  "login",
	Usage: "authenticate against the platform and persist the session",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "username",
			Usage:    "account to authenticate as",
			Required: true,
			EnvVars:  []string{"MODWATCH_USERNAME"},
		},
		&cli.StringFlag{
			Name:     "password",
			Usage:    "account password",
			Required: true,
			EnvVars:  []string{"MODWATCH_PASSWORD"},
		},
		&cli.StringFlag{
			Name:     "app-id",
			Usage:    "OAuth app client id",
			Required: true,
			EnvVars:  []string{"MODWATCH_APP_ID"},
		},
		&cli.StringFlag{
			Name:     "app-secret",
			Usage:    "OAuth app client secret",
			Required: true,
			EnvVars:  []string{"MODWATCH_APP_SECRET"},
		},
		&cli.StringFlag{
			Name:    "user-agent",
			Usage:   "user agent sent with every API request",
			EnvVars: []string{"MODWATCH_USER_AGENT"},
		},
	},
	Action: runLogin,
}

var cmdLogout = &cli.Command{
	Name:  "logout",
	Usage: "delete the persisted auth session",
	Action: func(cctx *cli.Context) error {
		return redapi.WipeAuthSession()
	},
}

func runLogin(cctx *cli.Context) error {
	creds := redapi.Credentials{
		Username:  cctx.String("username"),
		Password:  cctx.String("password"),
		AppID:     cctx.String("app-id"),
		AppSecret: cctx.String("app-secret"),
		UserAgent: cctx.String("user-agent"),
	}
	if creds.UserAgent == "" {
		creds.UserAgent = fmt.Sprintf("modwatch (by u/%s)", creds.Username)
	}

	auth, err := redapi.Login(cctx.Context, creds)
	if err != nil {
		return err
	}
	if err := redapi.PersistAuthSession(&redapi.AuthSession{
		Credentials: creds,
		Auth:        *auth,
	}); err != nil {
		return err
	}
	fmt.Printf("logged in as u/%s\n", creds.Username)
	return nil
}
