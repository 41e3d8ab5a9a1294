package main

func (cli *commandLine) remindLogs() error {
	sent, err := cli.trackingSvc.SendMissingLogReminders()
	if err != nil {
		return err
	}
	logger.Printf("weekly log reminders sent: %d\n", sent)
	return nil
}
