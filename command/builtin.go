package command

import "time"

// Builtin returns the built-in commands in the order help lists them.
func Builtin() []Command {
	return []Command{
		{Name: "ping", Cooldown: 10 * time.Second, Description: "Replies with uptime and channel count.", Func: Ping},
		{Name: "join", Cooldown: 1 * time.Second, Description: "Launches the bot in the given channels. join channel...", Func: Join},
		{Name: "leave", Cooldown: 1 * time.Second, Description: "Turns off the bot in the given channels. leave channel...", Func: Leave},
		{Name: "addmod", Cooldown: 1 * time.Second, Description: "Adds user IDs to the moderator list. addmod 264630545", Func: AddMod},
		{Name: "removemod", Cooldown: 1 * time.Second, Description: "Removes user IDs from the moderator list. removemod 264630545", Func: RemoveMod},
		{Name: "help", Cooldown: 10 * time.Second, Description: "Describes a command. help help", Func: Help},
		{Name: "channels", Cooldown: 10 * time.Second, Description: "Lists connected channels.", Func: Channels},
		{Name: "addlink", Cooldown: 1 * time.Second, Description: "Adds links to the list of ad links. addlink example.horse", Func: AddLink},
		{Name: "removelink", Cooldown: 1 * time.Second, Description: "Removes links from the list of ad links. removelink example.horse", Func: RemoveLink},
		{Name: "addphrase", Cooldown: 1 * time.Second, Description: "Adds a phrase to the list of ad phrases. addphrase buy followers", Func: AddPhrase},
		{Name: "removephrase", Cooldown: 1 * time.Second, Description: "Removes a phrase from the list of ad phrases. removephrase buy followers", Func: RemovePhrase},
		{Name: "joinme", Cooldown: 10 * time.Second, Description: "Launches the bot in your own channel.", Func: JoinMe},
		{Name: "leaveme", Cooldown: 10 * time.Second, Description: "Turns off the bot in your own channel.", Func: LeaveMe},
		{Name: "ban", Cooldown: 1 * time.Second, Description: "Keeps user IDs from using joinme. ban 264630545", Func: Ban},
		{Name: "unban", Cooldown: 1 * time.Second, Description: "Allows user IDs to use joinme again. unban 264630545", Func: Unban},
		{Name: "data", Cooldown: 30 * time.Second, Description: "Uploads all lists and replies with a link.", Func: Data},
	}
}
