package present

import "fmt"

// Fixed replies.
const (
	MsgNeedTwoChars     = "请输入两字词语！"
	MsgChallengeOver    = "今日挑战已结束！"
	MsgAlreadyStarted   = "今日挑战早已开始！"
	MsgUnfinished       = "存在未完成的挑战！"
	MsgCompletedToday   = "今日挑战已完成，明天再来！"
	MsgPoolExhausted    = "开始新挑战失败：题库已尽。"
	MsgCatalogDown      = "开始新挑战失败：无法获取词库，请稍后再试。"
	MsgInternalError    = "出错了，请稍后再试。"
	MsgLeaderboardTitle = "词意每日挑战排行榜："
	MsgLeaderboardEmpty = "暂无记录"
)

// Rules is sent when a challenge starts.
const Rules = "每日词意挑战开始！\n\n" +
	"目标\n" +
	"    猜出系统选择的两字词语\n\n" +
	"反馈\n" +
	"    每次猜测后，获得相似度排名与相邻词提示\n\n" +
	"    例如: `?好) 企业 (地? #467`\n" +
	"        #467      → 相似度排名 (越小越近)\n" +
	"        ?好 / 地? → 相邻词提示 (? 为隐藏字)\n\n" +
	"周期\n" +
	"    每日一词，猜对则次日刷新\n" +
	"    系统记录猜对次数，可查排行"

// Help lists the commands.
const Help = "词意（猜词游戏）\n\n" +
	"ciyi.每日挑战  开始今日挑战\n" +
	"ciyi.猜 <词语>  猜一个两字词语\n" +
	"ciyi.排行榜    查看猜对次数排行"

// NotInWordList reports an out-of-vocabulary guess.
func NotInWordList(guess string) string { return fmt.Sprintf("%s 不在词库中", guess) }

// AlreadyGuessed reports a duplicate guess.
func AlreadyGuessed(guess string) string { return fmt.Sprintf("%s 已猜过", guess) }

// Win announces the answer and how many guesses it took.
func Win(answer string, attempts int) string {
	return fmt.Sprintf("恭喜你猜对了！\n答案：%s\n猜测：%d 次", answer, attempts)
}

// Leaderboard renders the titled leaderboard.
func Leaderboard(body string) string {
	if body == "" {
		body = MsgLeaderboardEmpty
	}
	return MsgLeaderboardTitle + "\n" + body
}
