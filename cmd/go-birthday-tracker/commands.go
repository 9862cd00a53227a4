package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/tartampluch/go-birthday-tracker/internal/api"
	"github.com/tartampluch/go-birthday-tracker/internal/calendar"
	"github.com/tartampluch/go-birthday-tracker/internal/config"
	"github.com/tartampluch/go-birthday-tracker/internal/engine"
	"github.com/tartampluch/go-birthday-tracker/internal/server"
	"github.com/tartampluch/go-birthday-tracker/internal/source"
	"github.com/tartampluch/go-birthday-tracker/internal/validation"
	"github.com/tartampluch/go-birthday-tracker/internal/vcard"
	"golang.org/x/sync/errgroup"
)

const cmdServe = "serve"

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           config.AppBinary,
		Short:         "Track birthdays, countdowns and reminders",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.BoolVar(&a.debug, config.FlagDebug, false, config.FlagDescDebug)
	pf.StringVar(&a.lang, config.FlagLang, "", config.FlagDescLang)
	pf.BoolVar(&a.offline, config.FlagOffline, false, config.FlagDescOffline)
	pf.StringVar(&a.user, config.FlagUser, "", config.FlagDescUser)

	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	root.AddCommand(
		newListCmd(a),
		newUpcomingCmd(a),
		newShowCmd(a),
		newStatsCmd(a),
		newRemindersCmd(a),
		newNotificationsCmd(a),
		newAddCmd(a),
		newEditCmd(a),
		newDeleteCmd(a),
		newImportCmd(a),
		newExportCmd(a),
		newLoginCmd(a),
		newLogoutCmd(a),
		newVCardPasswordCmd(a),
		newServeCmd(a),
		newVersionCmd(a),
	)
	return root
}

// --- list / upcoming ---

type listFlags struct {
	search        string
	category      string
	relationships []string
	sort          string
	window        int
	recent        int
	json          bool
}

func (f *listFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.search, config.FlagSearch, "", config.FlagDescSearch)
	fs.StringVar(&f.category, config.FlagCategory, "", config.FlagDescCategory)
	fs.StringSliceVar(&f.relationships, config.FlagRelationship, nil, config.FlagDescRelationship)
	fs.StringVar(&f.sort, config.FlagSort, string(engine.SortUpcoming), config.FlagDescSort)
	fs.IntVar(&f.window, config.FlagWindow, config.WindowMonth, config.FlagDescWindow)
	fs.IntVar(&f.recent, config.FlagRecent, config.WindowWeek, config.FlagDescRecent)
	fs.BoolVar(&f.json, config.FlagJSON, false, config.FlagDescJSON)
}

func (f *listFlags) query(a *app) (engine.Query, error) {
	sortKey, err := engine.ParseSortKey(f.sort)
	if err != nil {
		return engine.Query{}, err
	}
	var category engine.Category
	if f.category != "" {
		if category, err = engine.ParseCategory(f.category); err != nil {
			return engine.Query{}, err
		}
	}
	if f.window < 0 || f.recent < 0 {
		return engine.Query{}, errors.New(config.ErrBadWindow)
	}
	return engine.Query{
		Search:        f.search,
		Category:      category,
		Relationships: f.relationships,
		Sort:          sortKey,
		Windows:       engine.Windows{Upcoming: f.window, Recent: f.recent},
		Language:      a.tr.Tag(),
	}, nil
}

func newListCmd(a *app) *cobra.Command {
	var f listFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List birthdays with countdowns",
		Long: `List birthdays with countdowns.

Examples:
  go-birthday-tracker list --category upcoming --window 14
  go-birthday-tracker list --relationship family --relationship friend --sort name
  go-birthday-tracker list --search jazz --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := f.query(a)
			if err != nil {
				return err
			}
			records, err := a.records(cmd.Context())
			if err != nil {
				return err
			}
			es := q.Apply(records, a.today())
			if f.json {
				return printJSON(a.stdout, es)
			}
			return printTable(a.stdout, a.tr, es)
		},
	}
	f.register(cmd)
	return cmd
}

func newUpcomingCmd(a *app) *cobra.Command {
	var (
		window int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "upcoming",
		Short: "Birthdays in the next days, soonest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if window < 0 {
				return errors.New(config.ErrBadWindow)
			}
			records, err := a.records(cmd.Context())
			if err != nil {
				return err
			}
			q := engine.Query{
				Category: engine.CategoryUpcoming,
				Sort:     engine.SortUpcoming,
				Windows:  engine.Windows{Upcoming: window, Recent: config.WindowWeek},
				Language: a.tr.Tag(),
			}
			es := q.Apply(records, a.today())
			if asJSON {
				return printJSON(a.stdout, es)
			}
			return printTable(a.stdout, a.tr, es)
		},
	}
	cmd.Flags().IntVar(&window, config.FlagWindow, config.WindowWeek, config.FlagDescWindow)
	cmd.Flags().BoolVar(&asJSON, config.FlagJSON, false, config.FlagDescJSON)
	return cmd
}

// --- show ---

func newShowCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one birthday with its derived fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := a.records(cmd.Context())
			if err != nil {
				return err
			}
			for _, r := range records {
				if r.ID != args[0] {
					continue
				}
				e := engine.Enrich(r, a.today(), defaultWindows())
				if asJSON {
					return printJSON(a.stdout, e)
				}
				return printDetail(a.stdout, a.tr, e)
			}
			return fmt.Errorf("%w: %s", api.ErrNotFound, args[0])
		},
	}
	cmd.Flags().BoolVar(&asJSON, config.FlagJSON, false, config.FlagDescJSON)
	return cmd
}

// --- stats ---

func newStatsCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Counts by month, sign and relationship",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := a.records(cmd.Context())
			if err != nil {
				return err
			}
			es := engine.EnrichAll(records, a.today(), defaultWindows())
			stats := engine.Summarize(es, config.WindowWeek, config.WindowMonth, config.TopUpcoming)
			if asJSON {
				return printJSON(a.stdout, stats)
			}
			return printStats(a.stdout, a.tr, stats)
		},
	}
	cmd.Flags().BoolVar(&asJSON, config.FlagJSON, false, config.FlagDescJSON)
	return cmd
}

// --- reminders / notifications ---

func newRemindersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reminders",
		Short: "Reminders due today and unread notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			src, err := a.source()
			if err != nil {
				return err
			}

			var (
				records       []engine.BirthdayRecord
				notifications []engine.NotificationRecord
			)
			switch s := src.(type) {
			case *source.APISource:
				snap, err := s.Sync(cmd.Context())
				if err != nil {
					return err
				}
				if snap.Stale {
					fmt.Fprintln(a.stderr, a.tr.Text(config.TKeyCliStale, map[string]any{"Time": snap.FetchedAt.Local().Format(time.DateTime)}))
				}
				records, notifications = snap.Birthdays, snap.Notifications
			case *source.CacheSource:
				if records, err = s.Load(cmd.Context()); err != nil {
					return err
				}
				if notifications, err = s.Notifications(cmd.Context()); err != nil {
					return err
				}
			default:
				if records, err = src.Load(cmd.Context()); err != nil {
					return err
				}
			}

			es := engine.EnrichAll(records, a.today(), defaultWindows())
			for _, e := range engine.DueReminders(es) {
				fmt.Fprintln(a.stdout, a.tr.Reminder(e.Name, e.DaysUntil))
			}
			if n := engine.UnreadCount(notifications); n > 0 {
				fmt.Fprintln(a.stdout, a.tr.Count(config.TKeyCliUnread, n, nil))
			}
			return nil
		},
	}
}

func newNotificationsCmd(a *app) *cobra.Command {
	var (
		markRead string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "List backend notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}
			if markRead != "" {
				if err := client.MarkNotificationRead(cmd.Context(), markRead); err != nil {
					return err
				}
				fmt.Fprintln(a.stdout, a.tr.Text(config.TKeyCliMarkedRead, map[string]any{"ID": markRead}))
				return nil
			}
			ns, err := client.ListNotifications(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(a.stdout, ns)
			}
			return printNotifications(a.stdout, ns)
		},
	}
	cmd.Flags().StringVar(&markRead, config.FlagMarkRead, "", config.FlagDescMarkRead)
	cmd.Flags().BoolVar(&asJSON, config.FlagJSON, false, config.FlagDescJSON)
	return cmd
}

// --- add / edit / delete ---

type recordFlags struct {
	name         string
	date         string
	relationship string
	notes        string
	notifyBefore int
	noNotify     bool
}

func (f *recordFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.name, config.FlagName, "", config.FlagDescName)
	fs.StringVar(&f.date, config.FlagDate, "", config.FlagDescDate)
	fs.StringVar(&f.relationship, config.FlagRelationship, "", config.FlagDescRelOne)
	fs.StringVar(&f.notes, config.FlagNotes, "", config.FlagDescNotes)
	fs.IntVar(&f.notifyBefore, config.FlagNotifyBefore, config.DefaultNotifyBeforeDays, config.FlagDescNotifyBefore)
	fs.BoolVar(&f.noNotify, config.FlagNoNotify, false, config.FlagDescNoNotify)
}

// apply copies the flags the user set onto r. With all=true every flag is applied.
func (f *recordFlags) apply(cmd *cobra.Command, r *engine.BirthdayRecord, all bool) {
	changed := func(name string) bool { return all || cmd.Flags().Changed(name) }
	if changed(config.FlagName) {
		r.Name = strings.TrimSpace(f.name)
	}
	if changed(config.FlagDate) {
		r.Date = strings.TrimSpace(f.date)
	}
	if changed(config.FlagRelationship) {
		r.Relationship = strings.TrimSpace(f.relationship)
	}
	if changed(config.FlagNotes) {
		r.Notes = f.notes
	}
	if changed(config.FlagNotifyBefore) {
		r.NotifyBeforeDays = f.notifyBefore
	}
	if changed(config.FlagNoNotify) {
		r.NotificationsEnabled = !f.noNotify
	}
}

func newAddCmd(a *app) *cobra.Command {
	var f recordFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a birthday on the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var r engine.BirthdayRecord
			f.apply(cmd, &r, true)

			v, err := validation.New(a.clock)
			if err != nil {
				return err
			}
			if err := v.Validate(r); err != nil {
				return err
			}

			client, err := a.client()
			if err != nil {
				return err
			}
			created, err := client.CreateBirthday(cmd.Context(), r)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, a.tr.Text(config.TKeyCliCreated, map[string]any{"Name": created.Name, "ID": created.ID}))
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newEditCmd(a *app) *cobra.Command {
	var f recordFlags
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a birthday on the backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}
			r, err := client.GetBirthday(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			f.apply(cmd, &r, false)

			v, err := validation.New(a.clock)
			if err != nil {
				return err
			}
			if err := v.Validate(r); err != nil {
				return err
			}

			updated, err := client.UpdateBirthday(cmd.Context(), r)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, a.tr.Text(config.TKeyCliUpdated, map[string]any{"Name": updated.Name, "ID": updated.ID}))
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a birthday on the backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}
			if err := client.DeleteBirthday(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, a.tr.Text(config.TKeyCliDeleted, map[string]any{"ID": args[0]}))
			return nil
		},
	}
}

// --- import / export ---

func newImportCmd(a *app) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "import <file.vcf|url>",
		Short: "Import birthdays from a vCard address book into the backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			importer := &vcard.Importer{Clock: a.clock, Fetcher: vcard.NewHTTPFetcher()}

			var (
				records []engine.BirthdayRecord
				skipped []error
				err     error
			)
			if target := args[0]; strings.HasPrefix(target, config.SchemeHTTP+"://") || strings.HasPrefix(target, config.SchemeHTTPS+"://") {
				records, skipped, err = importer.ImportURL(ctx, target, a.settings.VCardUser, a.vcardPassword())
			} else {
				records, skipped, err = importer.ImportFile(ctx, target)
			}
			if err != nil {
				return err
			}
			for _, s := range skipped {
				a.importInvalid(args[0], s)
			}

			v, err := validation.New(a.clock)
			if err != nil {
				return err
			}
			valid := make([]engine.BirthdayRecord, 0, len(records))
			for _, r := range records {
				if err := v.Validate(r); err != nil {
					a.importInvalid(r.Name, err)
					continue
				}
				valid = append(valid, r)
			}
			invalid := len(skipped) + len(records) - len(valid)

			if dryRun {
				a.importSummary(len(valid), invalid)
				fmt.Fprintln(a.stdout, a.tr.Text(config.TKeyCliDryRun, nil))
				return nil
			}

			client, err := a.client()
			if err != nil {
				return err
			}
			var failures []error
			created := 0
			for _, r := range valid {
				if _, err := client.CreateBirthday(ctx, r); err != nil {
					if errors.Is(err, api.ErrUnauthorized) || ctx.Err() != nil {
						return err
					}
					failures = append(failures, fmt.Errorf("%s: %w", r.Name, err))
					continue
				}
				created++
			}

			a.importSummary(created, invalid+len(failures))
			if len(failures) > 0 {
				return fmt.Errorf("%s: %w", config.ErrImportFailed, errors.Join(failures...))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, config.FlagDryRun, false, config.FlagDescDryRun)
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the birthday calendar as iCalendar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := a.records(cmd.Context())
			if err != nil {
				return err
			}
			now := a.clock.Now()
			gen := &calendar.Generator{FormatSummary: a.tr.Summary}
			data, err := gen.Build(engine.EnrichAll(records, engine.DateOf(now), engine.Windows{}), now)
			if err != nil {
				return err
			}

			if output == "" {
				if _, err := a.stdout.Write(data); err != nil {
					return fmt.Errorf("%s: %w", config.ErrWriteOutput, err)
				}
				return nil
			}
			if err := os.WriteFile(output, data, config.FilePermUserRW); err != nil {
				return fmt.Errorf("%s: %w", config.ErrWriteOutput, err)
			}
			fmt.Fprintln(a.stderr, a.tr.Text(config.TKeyCliExportWritten, map[string]any{"Path": output}))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, config.FlagOutput, "o", "", config.FlagDescOutput)
	return cmd
}

// --- login / logout ---

func newLoginCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log in to the backend and store the session token in the OS keyring",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := a.requireUser()
			if err != nil {
				return err
			}

			pass, err := a.readPassword()
			if err != nil {
				return err
			}

			client, err := a.client()
			if err != nil {
				return err
			}
			token, err := client.Login(cmd.Context(), user, pass)
			if err != nil {
				return err
			}
			if err := a.tokens.Save(user, token); err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, a.tr.Text(config.TKeyCliLoginOK, map[string]any{"User": user}))
			return nil
		},
	}
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the session token and the offline cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := a.requireUser()
			if err != nil {
				return err
			}
			if err := a.tokens.Clear(user); err != nil {
				return err
			}

			store, err := a.cache()
			if err != nil {
				return err
			}
			for _, kind := range []string{config.CacheKeyBirthdays, config.CacheKeyNotifications} {
				if err := store.Delete(cmd.Context(), source.CacheKey(kind, user)); err != nil {
					return err
				}
			}
			fmt.Fprintln(a.stdout, a.tr.Text(config.TKeyCliLogoutOK, map[string]any{"User": user}))
			return nil
		},
	}
}

func newVCardPasswordCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "vcard-password",
		Short: "Store the vCard server password in the OS keyring",
		Long: `Store the vCard server password in the OS keyring.

The password is read from stdin and used for the vcard_user account by
"import <url>" and by the vcard source of "serve".`,
		Args: cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			user := a.settings.VCardUser
			if user == "" {
				return errors.New(config.ErrVCardUser)
			}
			pass, err := a.readPassword()
			if err != nil {
				return err
			}
			if err := a.tokens.SaveSecret(user, pass); err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, a.tr.Text(config.TKeyCliVCardSaved, map[string]any{"User": user}))
			return nil
		},
	}
}

// --- serve ---

func newServeCmd(a *app) *cobra.Command {
	var port, mode string
	cmd := &cobra.Command{
		Use:   cmdServe,
		Short: "Serve the calendar feed and the JSON API on localhost",
		Long: `Serve the calendar feed and the JSON API on localhost.

Subscribe to http://127.0.0.1:<port>/calendar.ics from any calendar application.
Records are reloaded from the configured source every refresh interval.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed(config.FlagPort) {
				a.settings.Port = port
			}
			if cmd.Flags().Changed(config.FlagSource) {
				a.settings.SourceMode = mode
			}

			src, err := a.source()
			if err != nil {
				return err
			}
			srv := server.New(a.settings.Port, a.clock, a.tr)
			refresher := source.NewRefresher(src, srv, time.Duration(a.settings.RefreshMin)*time.Minute)
			srv.OnRefresh = refresher.Trigger

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error { return srv.Start(ctx) })
			g.Go(func() error { return refresher.Run(ctx) })
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&port, config.FlagPort, config.DefaultPort, config.FlagDescPort)
	cmd.Flags().StringVar(&mode, config.FlagSource, config.SourceModeAPI, config.FlagDescSource)
	return cmd
}

// --- version ---

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// No settings, logging or keyring access needed.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(*cobra.Command, []string) error {
			_, err := fmt.Fprintf(a.stdout, config.MsgVersionOutput,
				config.AppName,
				config.Version,
				config.Commit,
				config.Date,
				runtime.GOOS,
				runtime.GOARCH,
			)
			return err
		},
	}
}

// readPassword prompts on stderr and reads one line from stdin.
func (a *app) readPassword() (string, error) {
	fmt.Fprint(a.stderr, a.tr.Text(config.TKeyCliPassword, nil))
	line, err := bufio.NewReader(a.stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (a *app) importInvalid(name string, err error) {
	fmt.Fprintln(a.stderr, a.tr.Text(config.TKeyCliImportInvalid, map[string]any{"Name": name, "Error": err}))
}

func (a *app) importSummary(imported, skipped int) {
	fmt.Fprintln(a.stdout, a.tr.Count(config.TKeyCliImportSummary, imported, map[string]any{"Skipped": skipped}))
}

func defaultWindows() engine.Windows {
	return engine.Windows{Upcoming: config.WindowMonth, Recent: config.WindowWeek}
}
