package email

// Email templates using HTML

const lowBalanceTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: linear-gradient(135deg, #f59e0b, #d97706); color: white; padding: 30px; text-align: center; border-radius: 10px 10px 0 0; }
        .header h1 { margin: 0; font-size: 24px; }
        .content { background: #ffffff; padding: 30px; border: 1px solid #e5e7eb; border-top: none; }
        .footer { background: #f9fafb; padding: 20px; text-align: center; font-size: 12px; color: #6b7280; border: 1px solid #e5e7eb; border-top: none; border-radius: 0 0 10px 10px; }
        .warning-box { background: #fef3c7; border: 2px solid #f59e0b; padding: 20px; border-radius: 8px; margin: 20px 0; text-align: center; }
        .balance { font-size: 32px; font-weight: bold; color: #d97706; }
    </style>
</head>
<body>
    <div class="header">
        <h1>SIGEC-VE</h1>
        <p style="margin: 5px 0 0 0; opacity: 0.9;">Low Balance Warning</p>
    </div>
    <div class="content">
        <h2>Your Balance is Running Low</h2>
        <p>Your account balance is running low. Please add funds to continue using our charging services without interruption.</p>
        <div class="warning-box">
            <p style="margin: 0 0 10px 0; color: #92400e;">Current Balance</p>
            <div class="balance">{{.Currency}} {{.Balance}}</div>
        </div>
    </div>
    <div class="footer">
        <p>This is an automated message. Please do not reply to this email.</p>
    </div>
</body>
</html>`

const stationOfflineTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: linear-gradient(135deg, #ef4444, #b91c1c); color: white; padding: 30px; text-align: center; border-radius: 10px 10px 0 0; }
        .content { background: #ffffff; padding: 30px; border: 1px solid #e5e7eb; border-top: none; border-radius: 0 0 10px 10px; }
    </style>
</head>
<body>
    <div class="header"><h1>Station Offline</h1></div>
    <div class="content">
        <p>Station {{.StationID}} has not sent a heartbeat in over 5 minutes and has been marked offline.</p>
        <p>Last seen: {{.LastHeartbeat}}</p>
    </div>
</body>
</html>`

const chargingErrorTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: linear-gradient(135deg, #ef4444, #b91c1c); color: white; padding: 30px; text-align: center; border-radius: 10px 10px 0 0; }
        .content { background: #ffffff; padding: 30px; border: 1px solid #e5e7eb; border-top: none; border-radius: 0 0 10px 10px; }
    </style>
</head>
<body>
    <div class="header"><h1>Charging Error</h1></div>
    <div class="content">
        <p>Your charging session on connector {{.ConnectorID}} at station {{.StationID}} reported error code {{.ErrorCode}}.</p>
    </div>
</body>
</html>`
