package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"estatecrm/internal/client"
	"estatecrm/internal/models"
)

// crmctl — консольный клиент CRM поверх client.Store: логин, просмотр
// данных, базовые мутации. Основной потребитель стора вне тестов.

const usage = `crmctl - estate CRM console client

usage:
  crmctl [-api URL] [-state DIR] <command> [args]

commands:
  login <email> <password>       authenticate and persist session
  logout                         drop the persisted session
  dashboard [-force]             load and print collection counts
  leads                          list leads
  orphans                        list leads whose assignee no longer exists
  add-lead <name> <phone>        create a lead
  delete-lead <id>               delete a lead (confirmed by the server)
  set-status <id> <status>       move a lead through the pipeline
  assign <leadId> <memberId>     assign a lead to a team member
  link <leadId> <propertyId>     link a lead to a property
  unlink <leadId> <propertyId>   remove the link
  welcome <leadId>               print a WhatsApp welcome link
`

func main() {
	apiURL := flag.String("api", envOr("CRM_API_URL", "http://localhost:8080/api"), "base API URL")
	stateDir := flag.String("state", os.Getenv("CRM_STATE_DIR"), "state directory (default ~/.estatecrm)")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	store, err := client.New(client.Config{
		BaseURL:  *apiURL,
		StateDir: *stateDir,
		OnAuthExpired: func() {
			fmt.Fprintln(os.Stderr, "session expired, run `crmctl login` again")
		},
	})
	if err != nil {
		fatal(err)
	}
	defer store.Close()

	if err := run(store, args[0], args[1:]); err != nil {
		fatal(err)
	}
}

func run(store *client.Store, cmd string, args []string) error {
	switch cmd {
	case "login":
		if len(args) != 2 {
			return fmt.Errorf("usage: crmctl login <email> <password>")
		}
		user, err := store.Login(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("logged in as %s (%s)\n", user.Name, user.Email)
		return nil

	case "logout":
		store.Logout()
		fmt.Println("session cleared")
		return nil

	case "dashboard":
		fs := flag.NewFlagSet("dashboard", flag.ExitOnError)
		force := fs.Bool("force", false, "bypass the cache")
		fs.Parse(args)
		cols := store.Load(*force)
		fmt.Printf("leads: %d\nproperties: %d\nteam: %d\n",
			len(cols.Leads), len(cols.Properties), len(cols.Team))
		return nil

	case "leads":
		cols := store.Load(false)
		for _, l := range cols.Leads {
			assignee := "-"
			if m := store.ResolveAssignee(l.AssignedToID); m != nil {
				assignee = m.Name
			}
			fmt.Printf("#%d\t%s\t%s\t%s\t%s\n", l.ID, l.Name, l.Phone, l.Status, assignee)
		}
		return nil

	case "orphans":
		store.Load(false)
		orphans := store.OrphanedLeads()
		if len(orphans) == 0 {
			fmt.Println("no orphaned leads")
			return nil
		}
		for _, l := range orphans {
			fmt.Printf("#%d\t%s\tassigned_to_id=%d (missing)\n", l.ID, l.Name, l.AssignedToID)
		}
		return nil

	case "add-lead":
		if len(args) != 2 {
			return fmt.Errorf("usage: crmctl add-lead <name> <phone>")
		}
		store.Load(false)
		lead, err := store.AddLead(models.Lead{Name: args[0], Phone: args[1]})
		if err != nil {
			return err
		}
		fmt.Printf("created lead #%d\n", lead.ID)
		return nil

	case "delete-lead":
		id, err := intArg(args, 0, "delete-lead <id>")
		if err != nil {
			return err
		}
		store.Load(false)
		if err := store.DeleteLead(id); err != nil {
			return err
		}
		fmt.Printf("deleted lead #%d\n", id)
		return nil

	case "set-status":
		if len(args) != 2 {
			return fmt.Errorf("usage: crmctl set-status <id> <status>")
		}
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("bad lead id %q", args[0])
		}
		store.Load(false)
		if err := store.UpdateLeadStatus(id, args[1]); err != nil {
			return err
		}
		fmt.Printf("lead #%d -> %s\n", id, args[1])
		return nil

	case "assign":
		leadID, memberID, err := twoIntArgs(args, "assign <leadId> <memberId>")
		if err != nil {
			return err
		}
		store.Load(false)
		if err := store.AssignLead(leadID, memberID); err != nil {
			return err
		}
		fmt.Printf("lead #%d assigned to member #%d\n", leadID, memberID)
		return nil

	case "link":
		leadID, propertyID, err := twoIntArgs(args, "link <leadId> <propertyId>")
		if err != nil {
			return err
		}
		store.Load(false)
		if err := store.LinkProperty(leadID, propertyID); err != nil {
			return err
		}
		fmt.Printf("lead #%d linked to property #%d\n", leadID, propertyID)
		return nil

	case "unlink":
		leadID, propertyID, err := twoIntArgs(args, "unlink <leadId> <propertyId>")
		if err != nil {
			return err
		}
		store.Load(false)
		if err := store.UnlinkProperty(leadID, propertyID); err != nil {
			return err
		}
		fmt.Printf("lead #%d unlinked from property #%d\n", leadID, propertyID)
		return nil

	case "welcome":
		id, err := intArg(args, 0, "welcome <leadId>")
		if err != nil {
			return err
		}
		link, err := store.WelcomeLink(id)
		if err != nil {
			return err
		}
		fmt.Printf("%s\n(greets %s from %s)\n", link.WhatsAppURL, link.LeadName, link.Agent)
		return nil

	default:
		return fmt.Errorf("unknown command %q, see crmctl -h", cmd)
	}
}

func intArg(args []string, i int, usage string) (int, error) {
	if len(args) <= i {
		return 0, fmt.Errorf("usage: crmctl %s", usage)
	}
	n, err := strconv.Atoi(args[i])
	if err != nil {
		return 0, fmt.Errorf("bad id %q", args[i])
	}
	return n, nil
}

func twoIntArgs(args []string, usage string) (int, int, error) {
	a, err := intArg(args, 0, usage)
	if err != nil {
		return 0, 0, err
	}
	b, err := intArg(args, 1, usage)
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
