package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/dispatchhub/dispatch/config"
	"github.com/dispatchhub/dispatch/database"
	"github.com/dispatchhub/dispatch/logger"
	"github.com/dispatchhub/dispatch/util/clock"
	"github.com/dispatchhub/dispatch/web"
	"github.com/dispatchhub/dispatch/web/cache"
	"github.com/dispatchhub/dispatch/web/entity"
	"github.com/dispatchhub/dispatch/web/locale"
	"github.com/dispatchhub/dispatch/web/service"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

func initLogger() error {
	level, err := logger.LevelFrom(config.GetLogLevel())
	if err != nil {
		return err
	}
	logger.InitLogger(level)
	return nil
}

func initDB() error {
	cfg, err := config.LoadDatabaseConfig(config.GetDBConfigPath())
	if err != nil {
		return err
	}
	return database.InitDB(cfg, clock.System)
}

func runWebServer() {
	log.Printf("%v %v", config.GetName(), config.GetVersion())

	if err := initLogger(); err != nil {
		log.Fatal(err)
	}
	defer logger.CloseLogger()

	if err := initDB(); err != nil {
		log.Fatal(err)
	}
	defer func() {
		if err := database.CloseDB(); err != nil {
			logger.Warning("close db err:", err)
		}
	}()

	newServer := func() (*web.Server, error) {
		store, err := cache.New()
		if err != nil {
			return nil, err
		}
		server := web.NewServer(database.GetDB(), store, clock.System, "")
		if err := server.Start(); err != nil {
			return nil, err
		}
		return server, nil
	}

	server, err := newServer()
	if err != nil {
		log.Println(err)
		return
	}

	sigCh := make(chan os.Signal, 1)
	// Trap shutdown signals
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGTERM, os.Interrupt)
	for {
		sig := <-sigCh

		switch sig {
		case syscall.SIGHUP:
			logger.Info("reloading on SIGHUP")
			if err := server.Stop(); err != nil {
				logger.Warning("stop server err:", err)
			}
			server, err = newServer()
			if err != nil {
				log.Println(err)
				return
			}
		default:
			if err := server.Stop(); err != nil {
				logger.Warning("stop server err:", err)
			}
			return
		}
	}
}

func migrateDb(out io.Writer, lang string) error {
	if err := initDB(); err != nil {
		return err
	}
	defer database.CloseDB()
	fmt.Fprintln(out, locale.I18n(lang, "cli.migrated"))
	return nil
}

func printJSON(out io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

// printError renders validation failures field by field in lang.
func printError(out io.Writer, lang string, err error) error {
	var verr *entity.ValidationError
	if !errors.As(err, &verr) {
		return err
	}
	fields := locale.LocalizeFieldErrors(locale.NewLocalizer(lang), verr.Fields)
	for _, f := range fields {
		if f.Field == "" {
			fmt.Fprintln(out, f.Message)
			continue
		}
		fmt.Fprintf(out, "%s: %s\n", f.Field, f.Message)
	}
	return err
}

func addUser(out io.Writer, lang string, in *entity.UserCreate) error {
	if err := initDB(); err != nil {
		return err
	}
	defer database.CloseDB()

	userService := service.NewUserService(database.GetDB(), nil, clock.System)
	user, err := userService.Create(context.Background(), in)
	if err != nil {
		return printError(out, lang, err)
	}
	fmt.Fprintln(out, locale.I18n(lang, "cli.userCreated", "Param=="+strconv.Itoa(user.Id)))
	return printJSON(out, user)
}

func listUsers(out io.Writer) error {
	if err := initDB(); err != nil {
		return err
	}
	defer database.CloseDB()

	users, err := service.NewUserService(database.GetDB(), nil, clock.System).List(context.Background())
	if err != nil {
		return err
	}
	return printJSON(out, users)
}

func addDriver(out io.Writer, lang string, in *entity.DriverCreate) error {
	if err := initDB(); err != nil {
		return err
	}
	defer database.CloseDB()

	driver, err := service.NewDriverService(database.GetDB(), clock.System).Create(context.Background(), in)
	if err != nil {
		return printError(out, lang, err)
	}
	fmt.Fprintln(out, locale.I18n(lang, "cli.driverCreated", "Param=="+strconv.Itoa(driver.Id)))
	return printJSON(out, driver)
}

func listDrivers(out io.Writer, activeOnly bool) error {
	if err := initDB(); err != nil {
		return err
	}
	defer database.CloseDB()

	drivers, err := service.NewDriverService(database.GetDB(), clock.System).List(context.Background(), activeOnly)
	if err != nil {
		return err
	}
	return printJSON(out, drivers)
}

func showSetting(out io.Writer) error {
	cfg, err := config.LoadDatabaseConfig(config.GetDBConfigPath())
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "current settings as follows:")
	fmt.Fprintln(out, "name:", config.GetName())
	fmt.Fprintln(out, "version:", config.GetVersion())
	fmt.Fprintln(out, "listen:", config.GetListen())
	fmt.Fprintln(out, "port:", config.GetPort())
	fmt.Fprintln(out, "log level:", config.GetLogLevel())
	fmt.Fprintln(out, "log folder:", config.GetLogFolder())
	fmt.Fprintln(out, "db type:", cfg.Type)
	if cfg.IsSQLite() {
		fmt.Fprintln(out, "db path:", cfg.SQLite.Path)
	} else {
		fmt.Fprintf(out, "db host: %s:%d/%s\n", cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.Database)
	}
	fmt.Fprintln(out, "cache:", config.GetCacheType())
	fmt.Fprintln(out, "time location:", config.GetTimeLocation())
	return nil
}

func newRootCmd() *cobra.Command {
	var lang string

	var rootCmd = &cobra.Command{
		Use:           config.GetName(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&lang, "lang", "en-US", "language of command output")

	var runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the web server",
		Run: func(cmd *cobra.Command, args []string) {
			runWebServer()
		},
	}

	var migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrateDb(cmd.OutOrStdout(), lang)
		},
	}

	var userCmd = &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	var userAddCmd = &cobra.Command{
		Use:   "add",
		Short: "Register a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := &entity.UserCreate{}
			flags := cmd.Flags()
			if flags.Changed("telegram-id") {
				id, _ := flags.GetInt64("telegram-id")
				in.TelegramID = &id
			}
			in.Name, _ = flags.GetString("name")
			if flags.Changed("role") {
				role, _ := flags.GetString("role")
				in.Role = &role
			}
			if flags.Changed("phone") {
				phone, _ := flags.GetString("phone")
				in.Phone = &phone
			}
			return addUser(cmd.OutOrStdout(), lang, in)
		},
	}
	userAddCmd.Flags().Int64("telegram-id", 0, "telegram account id")
	userAddCmd.Flags().String("name", "", "display name")
	userAddCmd.Flags().String("role", "", "manager, dispatcher or viewer")
	userAddCmd.Flags().String("phone", "", "phone number, +7 and 10 digits")

	var userListCmd = &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listUsers(cmd.OutOrStdout())
		},
	}
	userCmd.AddCommand(userAddCmd, userListCmd)

	var driverCmd = &cobra.Command{
		Use:   "driver",
		Short: "Manage drivers",
	}

	var driverAddCmd = &cobra.Command{
		Use:   "add",
		Short: "Register a driver",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			phone, _ := cmd.Flags().GetString("phone")
			in := &entity.DriverCreate{Name: name, Phone: phone}
			if cmd.Flags().Changed("inactive") {
				inactive, _ := cmd.Flags().GetBool("inactive")
				active := !inactive
				in.IsActive = &active
			}
			return addDriver(cmd.OutOrStdout(), lang, in)
		},
	}
	driverAddCmd.Flags().String("name", "", "driver name")
	driverAddCmd.Flags().String("phone", "", "driver phone")
	driverAddCmd.Flags().Bool("inactive", false, "register the driver as unavailable")

	var driverListCmd = &cobra.Command{
		Use:   "list",
		Short: "List drivers",
		RunE: func(cmd *cobra.Command, args []string) error {
			activeOnly, _ := cmd.Flags().GetBool("active")
			return listDrivers(cmd.OutOrStdout(), activeOnly)
		},
	}
	driverListCmd.Flags().Bool("active", false, "only available drivers")
	driverCmd.AddCommand(driverAddCmd, driverListCmd)

	var settingCmd = &cobra.Command{
		Use:   "setting",
		Short: "Inspect settings",
	}

	var showCmd = &cobra.Command{
		Use:   "show",
		Short: "Show current settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showSetting(cmd.OutOrStdout())
		},
	}
	settingCmd.AddCommand(showCmd)

	rootCmd.AddCommand(runCmd, migrateCmd, userCmd, driverCmd, settingCmd)
	return rootCmd
}

func main() {
	if err := config.LoadEnv(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := newRootCmd().Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
