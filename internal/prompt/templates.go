package prompt

const classificationTemplate = `
以下の文字起こしテキストを分析して、これが「商談」なのか「その他のミーティング」なのかを判定してください。

判定基準：
- 商談：営業活動、製品・サービスの紹介、価格交渉、契約に関する話し合い、顧客のニーズヒアリング、提案活動など
- その他のミーティング：社内会議、プロジェクト進捗会議、技術的な議論、一般的な打ち合わせなど

回答は「商談」または「その他のミーティング」のどちらかで答えてください。

文字起こしテキスト：
%s
`

const salesTemplate = `
以下の商談の文字起こしテキストから、情報を抽出してください。
出力例のJSONフォーマットに厳密に従い、各項目の値には指示された内容を記述してください。
テキスト中に該当する情報が存在しない場合は、推測せずにその項目に null を設定してください。
顧客が明確に発言していない内容を推測して記述することは絶対に避けてください。

**重要：以下のJSON形式のみで出力してください。マークダウンやコメントは一切含めないでください。**

出力例：
{
  "関係構築とヒアリング": {
    "会議の参加者": "[会議に参加している人物の氏名、会社名、役職を特定し、配列で記述]",
    "顧客のプロフィール": "[顧客の会社名、事業内容、業界、企業規模など、顧客の基本情報を記述]",
    "現状の顧客の課題、ニーズ、目標": "[顧客が「困っている」「問題だ」「改善したい」「目指している」と明確に発言した内容を具体的に要約]",
    "今行っている取り組みやその成果・課題": "[顧客が課題解決のために「現在行っている施策」と、それに対する「成果」や「新たな問題点」を記述]",
    "過去に行なってきた取り組みやその結果": "[顧客が「過去に試した施策」と、その「結果」や「中止した理由」を記述]",
    "KPIや最終的なゴール": "[顧客が言及した具体的な数値目標（KPI）や、事業として達成したい最終的なゴールを記述]",
    "次回のスケジュール": "[次回の会議や電話などの具体的な「日時」「目的」「参加者」が設定されていれば記述]"
  },
  "課題解決の提案とデモンストレーション": {
    "BANT情報": {
      "Budget": "[予算に関する顧客の発言を記述]",
      "Authority": "[決裁権に関する顧客の発言を記述]",
      "Need": "[必要性に関する顧客の発言を記述]",
      "Timing": "[導入時期に関する顧客の発言を記述]"
    },
    "商材の紹介に対しての反応": "[提案したサービスや製品に対する顧客のポジティブな反応とネガティブな反応を分けて記述]",
    "商材を導入する際、顧客が懸念すること": "[導入プロセス、価格、機能、サポート体制など、顧客が導入にあたって「不安だ」「心配だ」と発言した懸念点をリストアップ]",
    "次回のスケジュール": "[次回の会議や電話などの具体的な「日時」「目的」「参加者」が設定されていれば記述]"
  },
  "商談詳細の詰めと見積もりの提示": {
    "価格": "[提示された具体的な金額、料金体系（月額、年額、買い切りなど）、支払い条件を記述]",
    "次回のスケジュール": "[次回の会議や電話などの具体的な「日時」「目的」「参加者」が設定されていれば記述]"
  },
  "クロージング（契約締結）": {
    "最終的契約内容の確認": "[契約期間、提供範囲、金額など、契約締結にあたって最終確認された条件を記述]"
  },
  "このミーティングの後やるべきこと": "[会議後、自社（提案側）と顧客側でそれぞれ発生するタスク（TODO）を配列で記述]"
}

文字起こしテキスト：
%s
`

const generalTemplate = `
以下のミーティングの文字起こしテキストから、指定された情報を抽出してください。
情報が明記されていない場合は、該当する項目に null を設定してください。

抽出する情報：
- 会議の論点
- 結論
- 次やるTodo

**重要：JSON形式のみで出力してください。マークダウンやコメントは一切含めないでください。**

出力例：
{
  "会議の論点": ["ユーザー認証機能の完成時期", "バグの優先度と修正スケジュール", "リリース予定日への影響"],
  "結論": "バグ修正を優先し、リリースを1週間延期する",
  "次やるTodo": ["田中：ユーザー認証機能の完成", "鈴木：バグレポート作成", "山田：スケジュール再調整"]
}

文字起こしテキスト：
%s
`
