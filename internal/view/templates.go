package view

// 各ページのテンプレート。アセットビルドを持たないシンプルなサーバーサイドHTML。

const landingTemplate = `<!DOCTYPE html>
<html lang="ja">
<head>
<meta charset="utf-8">
<title>talkboard</title>
</head>
<body>
<h1>talkboard</h1>
<p>連絡先と会話をはじめよう。</p>
<p><a href="/auth/weibo/">Weiboでログイン</a></p>
</body>
</html>
`

const homeTemplate = `<!DOCTYPE html>
<html lang="ja">
<head>
<meta charset="utf-8">
<title>talkboard</title>
</head>
<body>
<div class="header">
  <span class="user">{{.User.Name}}</span>
  <a href="/logout">ログアウト</a>
</div>
<form method="post" action="/statuses/update">
  <textarea name="status" placeholder="@名前 でメンションできます"></textarea>
  <button type="submit">投稿</button>
</form>
<ul class="conversations">
{{range .Conversations}}
  <li>
    <a href="/show/{{.ConversationID}}">
      <span class="preview">{{status .Status}}</span>
    </a>
    <span class="meta">{{.UserName}} / {{.ParticipantCount}}人 / {{.StatusCount}}件 / {{.UpdatedTime}}</span>
    <span class="members">{{range .LatestUsers}}{{.}} {{end}}</span>
  </li>
{{else}}
  <li class="empty">まだ会話がありません。</li>
{{end}}
</ul>
<div class="contacts">
<h2>連絡先</h2>
<ul>
{{range .Contacts}}<li>{{.}}</li>{{end}}
</ul>
</div>
</body>
</html>
`

const registerTemplate = `<!DOCTYPE html>
<html lang="ja">
<head>
<meta charset="utf-8">
<title>登録の完了 - talkboard</title>
</head>
<body>
<h1>あと少しです、{{.UserName}}さん</h1>
<form method="post" action="/register">
  <label>email: <input type="email" name="email" required></label>
  <button type="submit">登録を完了する</button>
</form>
</body>
</html>
`

const detailTemplate = `<!DOCTYPE html>
<html lang="ja">
<head>
<meta charset="utf-8">
<title>会話 {{.Conversation.ConversationID}} - talkboard</title>
</head>
<body>
<div class="header">
  <span class="user">{{.User.Name}}</span>
  <a href="/">ホーム</a>
  <a href="/logout">ログアウト</a>
</div>
<div class="conversation">
  <h1>{{status .Conversation.Status}}</h1>
  <p class="meta">{{.Conversation.UserName}} / {{.Conversation.ParticipantCount}}人 / {{.Conversation.UpdatedTime}}</p>
  <p class="members">{{range .Conversation.AllUsers}}{{.}} {{end}}</p>
</div>
<ul class="statuses">
{{range .Conversation.Statuses}}
  <li>
    <span class="author">{{.UserName}}</span>
    <span class="body">{{status .Status}}</span>
    <span class="time">{{.CreatedTime}}</span>
  </li>
{{end}}
</ul>
<form method="post" action="/statuses/update">
  <input type="hidden" name="conversation_id" value="{{.Conversation.ConversationID}}">
  <textarea name="status"></textarea>
  <button type="submit">返信</button>
</form>
<div class="contacts">
<h2>連絡先</h2>
<ul>
{{range .Contacts}}<li>{{.}}</li>{{end}}
</ul>
</div>
</body>
</html>
`
