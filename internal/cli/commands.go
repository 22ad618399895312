package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/mkazakovs/entrypack/internal/backup"
	"github.com/mkazakovs/entrypack/internal/common"
	"github.com/mkazakovs/entrypack/internal/lifecycle"
	"github.com/mkazakovs/entrypack/internal/models"
)

func (a *App) dispatch(ctx context.Context, args []string) error {
	if len(args) == 0 {
		printUsage()
		return nil
	}

	switch args[0] {
	case "init":
		fmt.Println("store initialized")
		return nil
	case "backup":
		return a.backupCmd(ctx, args[1:])
	case "cloud":
		return a.cloudCmd(ctx, args[1:])
	case "pack":
		return a.packCmd(ctx, args[1:])
	case "restore":
		return a.restoreCmd(ctx, args[1:])
	case "preview":
		return a.previewCmd(ctx, args[1:])
	case "audit":
		return a.auditCmd(ctx, args[1:])
	case "help":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func printUsage() {
	fmt.Println(`Usage:
  init                       prepare the database schema
  backup create [photos]     create a local backup (optionally listing photos)
  backup list                list local backups
  backup validate <id>       check a backup's integrity
  backup delete <id>         delete a backup and its files
  backup cleanup             apply the retention window
  cloud create               create an encrypted cloud backup
  cloud sync                 retry pending cloud uploads
  pack list                  list entry packs
  pack submit <id> <card>    mark a pack submitted
  pack move <id> <status>    transition a pack (completed|expired|archived)
  pack delete <id>           delete a pack and its snapshots
  restore <id> [policy]      restore a backup (policy: ask|overwrite|skip)
  preview <id>               show a backup's contents
  audit [limit]              show recent audit events`)
}

func (a *App) backupCmd(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("backup: missing subcommand")
	}
	switch args[0] {
	case "create":
		includePhotos := len(args) > 1 && args[1] == "photos"
		meta, err := a.backups.CreateBackup(ctx, backup.Options{Type: models.BackupManual, IncludePhotos: includePhotos})
		if err != nil {
			return err
		}
		fmt.Printf("backup %s created: %d entries, %d bytes\n", meta.ID, meta.EntryPackCount, meta.FileSize)
		return nil
	case "list":
		list, err := a.backups.ListBackups(ctx)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("no backups")
			return nil
		}
		for _, m := range list {
			fmt.Printf("%s  %s  %d entries  %d bytes\n",
				m.ID, m.CreatedAt.Format("2006-01-02 15:04:05"), m.EntryPackCount, m.FileSize)
		}
		return nil
	case "validate":
		if len(args) < 2 {
			return errors.New("backup validate: missing backup id")
		}
		res, err := a.backups.ValidateBackupIntegrity(ctx, args[1], "")
		if errors.Is(err, common.ErrPasswordRequired) {
			pw, perr := GetPassword(os.Stdout)
			if perr != nil {
				return perr
			}
			res, err = a.backups.ValidateBackupIntegrity(ctx, args[1], string(pw))
		}
		if err != nil {
			return err
		}
		fmt.Println("backup is valid")
		for _, w := range res.Warnings {
			fmt.Println("warning:", w)
		}
		return nil
	case "delete":
		if len(args) < 2 {
			return errors.New("backup delete: missing backup id")
		}
		if err := a.backups.DeleteBackup(ctx, args[1]); err != nil {
			return err
		}
		fmt.Println("backup deleted")
		return nil
	case "cleanup":
		res, err := a.backups.CleanupOldBackups(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("kept %d, deleted %d, failed %d\n", res.Kept, res.Deleted, res.Failed)
		return nil
	default:
		return fmt.Errorf("backup: unknown subcommand %s", args[0])
	}
}

func (a *App) cloudCmd(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("cloud: missing subcommand")
	}
	switch args[0] {
	case "create":
		fmt.Println("leave empty to protect the archive with the device key")
		pw, err := GetPassword(os.Stdout)
		if err != nil {
			return err
		}
		meta, err := a.backups.CreateCloudBackup(ctx, string(pw))
		if err != nil {
			return err
		}
		fmt.Printf("cloud backup %s: %s\n", meta.ID, meta.SyncStatus)
		if meta.SyncError != "" {
			fmt.Println("sync error:", meta.SyncError)
		}
		return nil
	case "sync":
		results, err := a.backups.SyncPendingCloudBackups(ctx)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			fmt.Println("nothing to sync")
			return nil
		}
		for _, r := range results {
			if r.Synced {
				fmt.Printf("%s synced\n", r.BackupID)
			} else {
				fmt.Printf("%s failed: %s\n", r.BackupID, r.Error)
			}
		}
		return nil
	default:
		return fmt.Errorf("cloud: unknown subcommand %s", args[0])
	}
}

func (a *App) packCmd(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("pack: missing subcommand")
	}
	switch args[0] {
	case "list":
		packs, err := a.store.ListEntryPacks(ctx, localUser)
		if err != nil {
			return err
		}
		if len(packs) == 0 {
			fmt.Println("no entry packs")
			return nil
		}
		for _, p := range packs {
			fmt.Printf("%s  %-12s  %3d%%  %s\n", p.ID, p.Status, p.Display.CompletionPercent, p.DestinationID)
		}
		return nil
	case "submit":
		if len(args) < 3 {
			return errors.New("pack submit: need <id> <card>")
		}
		pack, err := a.machine.TransitionState(ctx, args[1], models.PackSubmitted, lifecycle.TransitionContext{
			Submission: &models.SubmissionRecord{CardNumber: args[2], Method: "cli"},
		})
		if err != nil {
			return err
		}
		fmt.Printf("pack %s is now %s\n", pack.ID, pack.Status)
		return nil
	case "move":
		if len(args) < 3 {
			return errors.New("pack move: need <id> <status>")
		}
		pack, err := a.machine.TransitionState(ctx, args[1], models.PackStatus(args[2]), lifecycle.TransitionContext{})
		if err != nil {
			return err
		}
		fmt.Printf("pack %s is now %s\n", pack.ID, pack.Status)
		return nil
	case "delete":
		if len(args) < 2 {
			return errors.New("pack delete: missing pack id")
		}
		res, err := a.machine.DeleteEntryPack(ctx, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("pack deleted, %d of %d snapshots cleaned up\n", res.DeletedSnapshots, res.TotalSnapshots)
		return nil
	default:
		return fmt.Errorf("pack: unknown subcommand %s", args[0])
	}
}

func (a *App) restoreCmd(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("restore: missing backup id")
	}
	policy := backup.ResolveAsk
	if len(args) > 1 {
		policy = backup.ConflictResolution(args[1])
	}

	opts := backup.RestoreOptions{ConflictResolution: policy}
	res, err := a.backups.PerformSelectiveRecovery(ctx, args[0], "", opts)
	if errors.Is(err, common.ErrPasswordRequired) {
		pw, perr := GetPassword(os.Stdout)
		if perr != nil {
			return perr
		}
		res, err = a.backups.PerformSelectiveRecovery(ctx, args[0], string(pw), opts)
	}
	if err != nil {
		return err
	}

	fmt.Printf("recovered %d, skipped %d\n", res.RecoveredCount, res.SkippedCount)
	for _, c := range res.Conflicts {
		fmt.Println("conflict:", c)
	}
	return nil
}

func (a *App) previewCmd(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("preview: missing backup id")
	}
	p, err := a.backups.PreviewBackupContents(ctx, args[0], "")
	if errors.Is(err, common.ErrPasswordRequired) {
		pw, perr := GetPassword(os.Stdout)
		if perr != nil {
			return perr
		}
		p, err = a.backups.PreviewBackupContents(ctx, args[0], string(pw))
	}
	if err != nil {
		return err
	}

	fmt.Printf("backup %s from %s (app %s, %s)\n", p.BackupID, p.CreatedAt, p.AppVersion, p.DeviceInfo)
	fmt.Printf("%d entries:\n", p.EntryCount)
	for _, id := range p.EntryInfoIDs {
		fmt.Println(" ", id)
	}
	return nil
}

func (a *App) auditCmd(ctx context.Context, args []string) error {
	limit := 20
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("audit: bad limit %q", args[0])
		}
		limit = n
	}

	events, err := a.store.ListAuditEvents(ctx, localUser, limit)
	if err != nil {
		return err
	}
	for _, e := range events {
		fmt.Printf("%s  %-18s  pack=%s snapshot=%s\n",
			e.Timestamp.Format("2006-01-02 15:04:05"), e.Type, e.EntryPackID, e.SnapshotID)
	}
	return nil
}
